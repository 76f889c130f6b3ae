package badgerdb

import (
	"fmt"
	"strings"

	"github.com/Timi16/Etherspotpaymaster/log"
)

// extendedLog adapts the paymaster logger to the badger.Logger interface.
type extendedLog struct {
	*log.Logger
}

func (l *extendedLog) Errorf(format string, args ...interface{}) {
	l.Error().Msg(trimNewline(fmt.Sprintf(format, args...)))
}

func (l *extendedLog) Warningf(format string, args ...interface{}) {
	l.Warn().Msg(trimNewline(fmt.Sprintf(format, args...)))
}

func (l *extendedLog) Infof(format string, args ...interface{}) {
	l.Info().Msg(trimNewline(fmt.Sprintf(format, args...)))
}

func (l *extendedLog) Debugf(format string, args ...interface{}) {
	l.Debug().Msg(trimNewline(fmt.Sprintf(format, args...)))
}

func trimNewline(msg string) string {
	return strings.TrimSuffix(msg, "\n")
}
