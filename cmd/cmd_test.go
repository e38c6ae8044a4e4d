package cmd

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestConfirm(t *testing.T) {
	assert.True(t, confirm(strings.NewReader("y\n"), "go?"))
	assert.True(t, confirm(strings.NewReader(" YES \n"), "go?"))
	assert.False(t, confirm(strings.NewReader("\n"), "go?"))
	assert.False(t, confirm(strings.NewReader("nope\n"), "go?"))
	assert.False(t, confirm(strings.NewReader(""), "go?"))
}

func TestConfirmRefusesWithoutTerminal(t *testing.T) {
	ok, err := confirmIfInteractive(strings.NewReader("y\n"), false, "reset?")
	assert.ErrorIs(t, err, errNotInteractive)
	assert.False(t, ok)

	ok, err = confirmIfInteractive(strings.NewReader("y\n"), true, "reset?")
	assert.NoError(t, err)
	assert.True(t, ok)
}

func TestErrorsArePrintedOnlyByMain(t *testing.T) {
	assert.True(t, rootCmd.SilenceErrors)
}

func TestStoreArgumentsAreValidated(t *testing.T) {
	for _, c := range []*struct {
		name string
		args []string
		ok   bool
	}{
		{"none", nil, true},
		{"master", []string{"master"}, true},
		{"documents", []string{"documents"}, true},
		{"unknown", []string{"factory"}, false},
		{"two", []string{"master", "operations"}, false},
	} {
		t.Run(c.name, func(t *testing.T) {
			for _, command := range []string{"run", "plan", "reset"} {
				sub, _, err := rootCmd.Find([]string{command})
				assert.NoError(t, err)
				err = sub.ValidateArgs(c.args)
				assert.Equal(t, c.ok, err == nil, command)
			}
		})
	}
}
