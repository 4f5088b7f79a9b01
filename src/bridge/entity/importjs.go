package entity

import (
	"encoding/json"
	"sort"
)

// Daemon command names understood by importjsd. Any other name is passed through verbatim.
const (
	CommandWord    = "word"
	CommandGoto    = "goto"
	CommandAdd     = "add"
	CommandFix     = "fix"
	CommandRewrite = "rewrite"
)

// Command is a single request written to the daemon as one line of JSON.
type Command struct {
	Command     string `json:"command"`
	PathToFile  string `json:"pathToFile"`
	FileContent string `json:"fileContent"`
	// CommandArg is the selected word for word/goto, or a word -> data mapping for add.
	CommandArg interface{} `json:"commandArg,omitempty"`
}

// Candidate is one possible resolution of an ambiguous import word.
// The resolution value is carried in Data and sent back verbatim in an add command.
type Candidate struct {
	DisplayName string          `json:"displayName"`
	Data        json.RawMessage `json:"data"`
}

// Response is a single line of JSON returned by the daemon.
type Response struct {
	Error             string                 `json:"error,omitempty"`
	Messages          []string               `json:"messages,omitempty"`
	UnresolvedImports map[string][]Candidate `json:"unresolvedImports,omitempty"`
	FileContent       *string                `json:"fileContent,omitempty"`
	Goto              string                 `json:"goto,omitempty"`
}

// UnresolvedWords returns the ambiguous import words in a stable order.
func (r *Response) UnresolvedWords() []string {
	words := make([]string, 0, len(r.UnresolvedImports))
	for w := range r.UnresolvedImports {
		words = append(words, w)
	}
	sort.Strings(words)
	return words
}

// Environment is the process environment used to launch the daemon.
type Environment map[string]string

// Environ returns the environment as sorted KEY=VALUE pairs, suitable for exec.Cmd.Env.
func (e Environment) Environ() []string {
	keys := make([]string, 0, len(e))
	for k := range e {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	env := make([]string, 0, len(keys))
	for _, k := range keys {
		env = append(env, k+"="+e[k])
	}
	return env
}

// Clone returns a copy that can be modified without affecting the receiver.
func (e Environment) Clone() Environment {
	c := make(Environment, len(e))
	for k, v := range e {
		c[k] = v
	}
	return c
}
