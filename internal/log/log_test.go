package log

import (
	"io"
	"testing"

	"github.com/sirupsen/logrus"
)

func TestDebugFromEnv(t *testing.T) {
	t.Setenv(DebugEnv, "true")
	if New().GetLevel() != logrus.DebugLevel {
		t.Fatal("expected debug level")
	}

	t.Setenv(DebugEnv, "nonsense")
	if New().GetLevel() != logrus.InfoLevel {
		t.Fatal("expected info level for unparsable value")
	}
}

func TestDiscard(t *testing.T) {
	l := Discard()
	if l.Out != io.Discard {
		t.Fatal("Discard logger writes somewhere")
	}

	var _ Logger = l
}
