package main

import (
	"encoding/hex"
	"fmt"
	"io"
	"sync"

	"github.com/danmuck/msgsink/internal/config"
	"github.com/danmuck/msgsink/internal/feed"
)

const (
	formatQuoted = "quoted"
	formatHex    = "hex"
	formatRaw    = "raw"
)

func validFormat(f string) bool {
	switch f {
	case formatQuoted, formatHex, formatRaw:
		return true
	}
	return false
}

// printer writes one line per message. Server sessions share it.
type printer struct {
	mu     sync.Mutex
	w      io.Writer
	format string
	// Prefix lines with a short session id when several sessions interleave.
	sessions bool
}

func (p *printer) handle(m feed.Message) error {
	line := formatLine(m, p.format, p.sessions)
	p.mu.Lock()
	defer p.mu.Unlock()
	_, err := io.WriteString(p.w, line)
	return err
}

func formatLine(m feed.Message, format string, sessions bool) string {
	prefix := ""
	if sessions {
		id := m.Session
		if len(id) > 8 {
			id = id[:8]
		}
		prefix = id + " "
	}
	switch format {
	case formatRaw:
		return prefix + string(m.Data) + "\n"
	case formatHex:
		return fmt.Sprintf("%s%d %s %s\n", prefix, m.Seq, m.Boundary, hex.EncodeToString(m.Data))
	default:
		return fmt.Sprintf("%s%d %s \"%s\"\n", prefix, m.Seq, m.Boundary, config.FormatEscaped(m.Data))
	}
}
