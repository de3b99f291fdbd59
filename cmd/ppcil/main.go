// Command ppcil lifts PowerPC instructions to low-level IL and checks the
// lifted text against golden corpora.
//
// Setting PPCIL_PROFILE serves net/http/pprof while the command runs. A
// value of the form host:port picks the listen address; any other value
// uses localhost:6060.
package main

import (
	"log/slog"
	"net/http"
	_ "net/http/pprof"
	"os"
	"strings"

	"ppcil/internal/ppcil/cmd"
	"ppcil/internal/ppcil/log"
)

const defaultProfileAddr = "localhost:6060"

func profileAddr(v string) string {
	if strings.Contains(v, ":") {
		return v
	}
	return defaultProfileAddr
}

func main() {
	defer log.RecoverPanic("main", func() {
		slog.Error("ppcil terminated by an unhandled panic")
	})

	if v := os.Getenv("PPCIL_PROFILE"); v != "" {
		addr := profileAddr(v)
		go func() {
			slog.Info("serving pprof", "addr", addr)
			if err := http.ListenAndServe(addr, nil); err != nil {
				slog.Error("pprof listener stopped", "addr", addr, "err", err)
			}
		}()
	}

	cmd.Execute()
}
