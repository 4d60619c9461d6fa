package testutil

import "sync"

// ScriptedConfirmer answers confirmation prompts from a fixed script and
// records every prompt it was shown. Once the script runs out it answers no.
type ScriptedConfirmer struct {
	mu      sync.Mutex
	answers []bool
	prompts []string
}

func NewScriptedConfirmer(answers ...bool) *ScriptedConfirmer {
	return &ScriptedConfirmer{answers: answers}
}

func (c *ScriptedConfirmer) Confirm(prompt string) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.prompts = append(c.prompts, prompt)
	if len(c.answers) == 0 {
		return false, nil
	}
	answer := c.answers[0]
	c.answers = c.answers[1:]
	return answer, nil
}

// Prompts returns the prompts shown so far.
func (c *ScriptedConfirmer) Prompts() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.prompts...)
}
