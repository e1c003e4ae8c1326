// Package log provides leveled logging with caller prefixes. Debug output is
// gated on the process-wide debug flag.
package log

import (
	"fmt"
	glog "log"
	"os"
	"path"
	"runtime"

	"github.com/kamrankamilli/ptrscroll/pkg/config"
)

var (
	infoLogger    = glog.New(os.Stderr, "INFO: ", glog.Ldate|glog.Ltime)
	warningLogger = glog.New(os.Stderr, "WARNING: ", glog.Ldate|glog.Ltime)
	errorLogger   = glog.New(os.Stderr, "ERROR: ", glog.Ldate|glog.Ltime)
	debugLogger   = glog.New(os.Stderr, "DEBUG: ", glog.Ldate|glog.Ltime)
)

func callerPrefix() string {
	_, file, line, _ := runtime.Caller(2)
	return fmt.Sprintf("%s:%d: ", path.Base(file), line)
}

func Info(args ...interface{}) { infoLogger.Println(callerPrefix() + fmt.Sprint(args...)) }
func Infof(f string, args ...interface{}) {
	infoLogger.Println(callerPrefix() + fmt.Sprintf(f, args...))
}

func Warning(args ...interface{}) { warningLogger.Println(callerPrefix() + fmt.Sprint(args...)) }
func Warningf(f string, args ...interface{}) {
	warningLogger.Println(callerPrefix() + fmt.Sprintf(f, args...))
}

func Error(args ...interface{}) { errorLogger.Println(callerPrefix() + fmt.Sprint(args...)) }
func Errorf(f string, args ...interface{}) {
	errorLogger.Println(callerPrefix() + fmt.Sprintf(f, args...))
}

func Debug(args ...interface{}) {
	if config.Debug {
		debugLogger.Println(callerPrefix() + fmt.Sprint(args...))
	}
}
func Debugf(f string, args ...interface{}) {
	if config.Debug {
		debugLogger.Println(callerPrefix() + fmt.Sprintf(f, args...))
	}
}

// Fatalf reports a fatal startup error and exits with the given code.
func Fatalf(code int, f string, args ...interface{}) {
	errorLogger.Println(callerPrefix() + fmt.Sprintf(f, args...))
	os.Exit(code)
}
