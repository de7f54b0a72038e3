package auth

import (
	"net/http"
	"strings"

	"github.com/dalemusser/councilhub/internal/app/system/notify"
	"go.uber.org/zap"
)

// Flasher is a Notifier for HTML handlers. Messages are buffered and
// written to the session by Save, which must run before the redirect.
type Flasher struct {
	sm   *SessionManager
	msgs []notify.Message
}

// Flasher starts a flash buffer for one request.
func (sm *SessionManager) Flasher() *Flasher { return &Flasher{sm: sm} }

// Success implements notify.Notifier.
func (f *Flasher) Success(msg string) {
	f.msgs = append(f.msgs, notify.Message{Level: "success", Text: msg})
}

// Error implements notify.Notifier.
func (f *Flasher) Error(msg string) {
	f.msgs = append(f.msgs, notify.Message{Level: "error", Text: msg})
}

// Save stores the buffered messages as session flashes.
func (f *Flasher) Save(w http.ResponseWriter, r *http.Request) error {
	if len(f.msgs) == 0 {
		return nil
	}
	sess, _ := f.sm.GetSession(r)
	for _, m := range f.msgs {
		sess.AddFlash(m.Level+"|"+m.Text, flashKey)
	}
	return sess.Save(r, w)
}

// TakeFlashes pops pending flashes for rendering.
func (sm *SessionManager) TakeFlashes(w http.ResponseWriter, r *http.Request) []notify.Message {
	sess, err := sm.GetSession(r)
	if err != nil {
		return nil
	}
	raw := sess.Flashes(flashKey)
	if len(raw) == 0 {
		return nil
	}
	if err := sess.Save(r, w); err != nil {
		sm.log.Warn("save session after reading flashes", zap.Error(err))
	}
	out := make([]notify.Message, 0, len(raw))
	for _, v := range raw {
		s, ok := v.(string)
		if !ok {
			continue
		}
		level, text, found := strings.Cut(s, "|")
		if !found {
			level, text = "success", s
		}
		out = append(out, notify.Message{Level: level, Text: text})
	}
	return out
}
