package logrus

import (
	"github.com/sirupsen/logrus"
	"github.com/unkn0wn-root/replaycache"
)

// LogrusLogger routes replaycache logs to a logrus entry.
type LogrusLogger struct{ E *logrus.Entry }

var _ replaycache.Logger = LogrusLogger{}

func (l LogrusLogger) Debug(msg string, f replaycache.Fields) { l.with(f).Debug(msg) }
func (l LogrusLogger) Info(msg string, f replaycache.Fields)  { l.with(f).Info(msg) }
func (l LogrusLogger) Warn(msg string, f replaycache.Fields)  { l.with(f).Warn(msg) }
func (l LogrusLogger) Error(msg string, f replaycache.Fields) { l.with(f).Error(msg) }

func (l LogrusLogger) with(f replaycache.Fields) *logrus.Entry {
	if len(f) == 0 {
		return l.E
	}
	return l.E.WithFields(logrus.Fields(f))
}
