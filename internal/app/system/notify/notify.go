// Package notify carries user-facing outcome messages from domain operations
// back to whichever surface started them.
package notify

import "sync"

// Notifier receives success and error messages meant for the current user.
type Notifier interface {
	Success(msg string)
	Error(msg string)
}

// Message is one collected notification.
type Message struct {
	Level string `json:"level"` // success | error
	Text  string `json:"text"`
}

// Collector buffers messages so a JSON handler can return them in the response.
type Collector struct {
	mu   sync.Mutex
	msgs []Message
}

// Success implements Notifier.
func (c *Collector) Success(msg string) { c.add("success", msg) }

// Error implements Notifier.
func (c *Collector) Error(msg string) { c.add("error", msg) }

func (c *Collector) add(level, msg string) {
	c.mu.Lock()
	c.msgs = append(c.msgs, Message{Level: level, Text: msg})
	c.mu.Unlock()
}

// Messages returns the collected messages in order.
func (c *Collector) Messages() []Message {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]Message, len(c.msgs))
	copy(out, c.msgs)
	return out
}

// HasErrors reports whether any error-level message was collected.
func (c *Collector) HasErrors() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, m := range c.msgs {
		if m.Level == "error" {
			return true
		}
	}
	return false
}

// Discard drops every message.
type Discard struct{}

func (Discard) Success(string) {}
func (Discard) Error(string)   {}

// OrDiscard returns n, or a Discard notifier when n is nil.
func OrDiscard(n Notifier) Notifier {
	if n == nil {
		return Discard{}
	}
	return n
}
