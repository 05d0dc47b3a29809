package log

import (
	"io"
	"log"
	"os"
)

// Log is the process-wide logger. It writes to stderr until InitLog tees it
// to a file.
var Log = log.New(os.Stderr, "", log.LstdFlags)

func InitLog(outFile string) {
	if outFile == "" {
		return
	}
	f, err := os.OpenFile(outFile, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		Log.Fatalf("[-] Error opening log file: %v", err)
	}
	Log.SetOutput(io.MultiWriter(os.Stderr, f))
}
