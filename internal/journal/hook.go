/*
Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

// Package journal installs an optional logrus hook forwarding operational
// log entries to the systemd journal (component C11), used when
// /run/systemd/journal/socket exists and --syslog is passed.
package journal

import (
	"os"

	"github.com/coreos/go-systemd/journal"
	"github.com/sirupsen/logrus"
)

// Available reports whether a local systemd journal socket exists, the
// same check systemd units use to decide whether journald is reachable.
func Available() bool {
	return journal.Enabled()
}

// Hook forwards logrus entries to the systemd journal.
type Hook struct{}

// Levels reports that this hook fires for every configured logrus level.
func (Hook) Levels() []logrus.Level {
	return logrus.AllLevels
}

// Fire sends the entry to the journal at the matching priority.
func (Hook) Fire(e *logrus.Entry) error {
	msg, err := e.String()
	if err != nil {
		return err
	}
	vars := map[string]string{}
	for k, v := range e.Data {
		if s, ok := v.(string); ok {
			vars[k] = s
		}
	}
	return journal.Send(msg, levelToPriority(e.Level), vars)
}

func levelToPriority(l logrus.Level) journal.Priority {
	switch l {
	case logrus.PanicLevel, logrus.FatalLevel:
		return journal.PriEmerg
	case logrus.ErrorLevel:
		return journal.PriErr
	case logrus.WarnLevel:
		return journal.PriWarning
	case logrus.InfoLevel:
		return journal.PriInfo
	default:
		return journal.PriDebug
	}
}

// Install attaches the journal hook to logger when available and
// requested; it's a no-op otherwise.
func Install(logger *logrus.Logger, requested bool) {
	if !requested || !Available() {
		return
	}
	logger.AddHook(Hook{})
	logger.SetOutput(os.Stdout)
}
