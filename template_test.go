package atlottery

import (
	"bytes"
	"sync"
	"testing"
)

func TestIdentify(t *testing.T) {
	tests := []struct {
		name string
		art  *Artifact
		want Template
	}{
		{"dice", MustBuildDice(5*QORT, quiet()), TemplateDice},
		{"lottery", MustBuildLottery(1440, 2*QORT, quiet()), TemplateLotteryPoll},
		{"lottery direct", MustBuildLottery(1440, 2*QORT, quiet(), WithSleepMode(SleepDirect)), TemplateLotteryDirect},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.art.Template != tt.want {
				t.Errorf("Expected build to report %s, got %s", tt.want, tt.art.Template)
			}
			if got := Identify(tt.art.Code); got != tt.want {
				t.Errorf("Expected %s, got %s", tt.want, got)
			}

			h, ok := CodeHashOf(tt.want)
			if !ok || h != tt.art.CodeHash() {
				t.Errorf("Expected canonical hash %s, got %s (%v)", tt.art.CodeHash().Hex(), h.Hex(), ok)
			}
		})
	}

	t.Run("unknown code", func(t *testing.T) {
		if got := Identify([]byte{0x28}); got != TemplateUnknown {
			t.Errorf("Expected %s, got %s", TemplateUnknown, got)
		}
		if _, ok := CodeHashOf(TemplateUnknown); ok {
			t.Error("Expected no hash for the unknown template")
		}
	})
}

func TestConcurrentBuilds(t *testing.T) {
	want := map[Template]*Artifact{
		TemplateDice:          MustBuildDice(QORT, quiet()),
		TemplateLotteryPoll:   MustBuildLottery(60, QORT, quiet()),
		TemplateLotteryDirect: MustBuildLottery(60, QORT, quiet(), WithSleepMode(SleepDirect)),
	}

	const workers = 16
	got := make([][]*Artifact, workers)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			arts := []*Artifact{
				MustBuildDice(QORT, quiet()),
				MustBuildLottery(60, QORT, quiet()),
				MustBuildLottery(60, QORT, quiet(), WithSleepMode(SleepDirect)),
			}
			for _, art := range arts {
				art.Template = Identify(art.Code)
			}
			got[i] = arts
		}(i)
	}
	wg.Wait()

	for i, arts := range got {
		for _, art := range arts {
			ref, ok := want[art.Template]
			if !ok {
				t.Fatalf("worker %d: expected a known template, got %s", i, art.Template)
			}
			if !bytes.Equal(art.Code, ref.Code) || !bytes.Equal(art.Data, ref.Data) {
				t.Errorf("worker %d: expected %s build to match the sequential one", i, art.Template)
			}
		}
	}
}
