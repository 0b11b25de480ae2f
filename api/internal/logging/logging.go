package logging

import (
	"io"
	"log"
	"os"

	"gopkg.in/natefinch/lumberjack.v2"
)

// Setup направляет стандартный логгер в stdout и, если задан файл, в ротируемый файл.
// Возвращает функцию закрытия файла.
func Setup(prefix, file string) func() {
	log.SetFlags(log.LstdFlags | log.Lmsgprefix)
	log.SetPrefix(prefix + " ")

	if file == "" {
		log.SetOutput(os.Stdout)
		return func() {}
	}
	rotator := &lumberjack.Logger{
		Filename:   file,
		MaxSize:    50, // MB
		MaxBackups: 3,
		MaxAge:     14, // days
		Compress:   true,
	}
	log.SetOutput(io.MultiWriter(os.Stdout, rotator))
	return func() { _ = rotator.Close() }
}
