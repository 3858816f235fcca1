package core

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTurnMUS(t *testing.T) {
	tests := []struct {
		name string
		turn Turn
	}{
		{"zero time", Turn{Role: RoleUser, Content: "why?"}},
		{"failed", Turn{Role: RoleUser, Content: "لماذا؟", Status: TurnFailed, At: time.Date(2025, 1, 2, 3, 4, 5, 6000, time.UTC)}},
		{"empty answer", Turn{Role: RoleAssistant, Status: TurnComplete, At: time.Unix(0, 0).UTC()}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buf := make([]byte, TurnMUS.Size(tt.turn))
			n := TurnMUS.Marshal(tt.turn, buf)
			assert.Equal(t, len(buf), n)

			got, read, err := TurnMUS.Unmarshal(buf)
			require.NoError(t, err)
			assert.Equal(t, n, read)
			assert.Equal(t, tt.turn, got)

			skipped, err := TurnMUS.Skip(buf)
			require.NoError(t, err)
			assert.Equal(t, n, skipped)
		})
	}
}

func TestTimeMUS_EpochIsNotZero(t *testing.T) {
	epoch := time.Unix(0, 0).UTC()
	buf := make([]byte, TimeMUS.Size(epoch))
	TimeMUS.Marshal(epoch, buf)

	got, _, err := TimeMUS.Unmarshal(buf)
	require.NoError(t, err)
	assert.False(t, got.IsZero())
	assert.True(t, epoch.Equal(got))
}

func TestMUS_ShortInput(t *testing.T) {
	axiom := Axiom{Term: "substance", Definition: "in itself", Significance: "ground"}
	buf := make([]byte, AxiomMUS.Size(axiom))
	AxiomMUS.Marshal(axiom, buf)

	_, _, err := AxiomMUS.Unmarshal(buf[:len(buf)-1])
	assert.Error(t, err)

	_, err = MetadataMUS.Skip(nil)
	assert.Error(t, err)
}
