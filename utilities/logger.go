package utilities

import (
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"runtime"
	"sync"

	"gopkg.in/natefinch/lumberjack.v2"
)

var (
	infoLog  *log.Logger
	warnLog  *log.Logger
	errorLog *log.Logger
	logMutex sync.Mutex
	logOnce  sync.Once
)

// SetupLogging initializes the leveled loggers. Each level writes to its own
// rotated file under logDir and mirrors to stdout/stderr.
func SetupLogging(logDir string) {
	logOnce.Do(func() {
		if err := os.MkdirAll(logDir, 0755); err != nil {
			log.Fatalf("Failed to create log directory: %v", err)
		}

		infoWriter := io.MultiWriter(os.Stdout, rotatedFile(filepath.Join(logDir, "info.log")))
		warnWriter := io.MultiWriter(os.Stdout, rotatedFile(filepath.Join(logDir, "warn.log")))
		errorWriter := io.MultiWriter(os.Stderr, rotatedFile(filepath.Join(logDir, "error.log")))

		infoLog = log.New(infoWriter, "INFO: ", log.Ldate|log.Ltime)
		warnLog = log.New(warnWriter, "WARNING: ", log.Ldate|log.Ltime)
		errorLog = log.New(errorWriter, "ERROR: ", log.Ldate|log.Ltime)

		// Override Go's default log
		log.SetOutput(infoWriter)
	})
}

func rotatedFile(path string) io.Writer {
	return &lumberjack.Logger{
		Filename:   path,
		MaxSize:    10, // megabytes
		MaxBackups: 5,
		MaxAge:     28, // days
		Compress:   true,
	}
}

func getCallerInfo() string {
	pc, _, _, ok := runtime.Caller(3)
	if !ok {
		return "unknown"
	}
	return runtime.FuncForPC(pc).Name()
}

// Log writes a formatted entry at the given level, tagged with the caller.
func Log(level string, format string, v ...interface{}) {
	if infoLog == nil {
		SetupLogging("logs")
	}

	logMutex.Lock()
	defer logMutex.Unlock()

	message := fmt.Sprintf(format, v...)
	logEntry := fmt.Sprintf("[%s] %s", getCallerInfo(), message)

	switch level {
	case "WARNING":
		warnLog.Println(logEntry)
	case "ERROR":
		errorLog.Println(logEntry)
	default:
		infoLog.Println(logEntry)
	}
}

func Info(format string, v ...interface{}) {
	Log("INFO", format, v...)
}

func Warn(format string, v ...interface{}) {
	Log("WARNING", format, v...)
}

func Error(format string, v ...interface{}) {
	Log("ERROR", format, v...)
}
