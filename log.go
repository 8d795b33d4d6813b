/*
 * Copyright 2021 National Library of Norway.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *       http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package gowarc

import (
	"github.com/fatih/color"
	log "github.com/sirupsen/logrus"
)

// pkgLog is the package-level logger. It records decoded records and writer
// bookkeeping at Debug level and config reload failures at Warn level; it is
// never consulted for control flow, only errors are.
var pkgLog = log.StandardLogger()

func init() {
	if !color.NoColor {
		pkgLog.SetFormatter(&colorFormatter{inner: &log.TextFormatter{}})
	}
}

// SetLogger replaces the package logger, letting an embedding application
// route gowarc's diagnostics through its own logrus instance.
func SetLogger(l *log.Logger) {
	pkgLog = l
}

// colorFormatter wraps another logrus.Formatter, coloring the level field the
// way an interactive terminal session expects, without forcing color codes
// onto a redirected log file.
type colorFormatter struct {
	inner log.Formatter
}

func (f *colorFormatter) Format(e *log.Entry) ([]byte, error) {
	switch e.Level {
	case log.ErrorLevel, log.FatalLevel, log.PanicLevel:
		e.Message = color.RedString(e.Message)
	case log.WarnLevel:
		e.Message = color.YellowString(e.Message)
	case log.DebugLevel, log.TraceLevel:
		e.Message = color.CyanString(e.Message)
	}
	return f.inner.Format(e)
}
