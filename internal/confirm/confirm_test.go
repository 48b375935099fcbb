package confirm

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"anisync/internal/anilist"
	"anisync/internal/shared"
)

func intPtr(v int) *int { return &v }

func entryFixture() anilist.ListEntry {
	return anilist.ListEntry{
		ID:       991,
		MediaID:  5114,
		Status:   anilist.StatusCompleted,
		Score:    intPtr(90),
		Progress: 64,
		Media: &anilist.Media{
			Title: anilist.MediaTitle{
				Romaji:  "Hagane no Renkinjutsushi",
				English: "Fullmetal Alchemist: Brotherhood",
			},
		},
	}
}

// scriptedPrompt feeds answers in order and fails the test when asked for
// more than it has.
func scriptedPrompt(t *testing.T, answers ...string) (PromptFunc, *int) {
	t.Helper()

	calls := 0
	fn := func(question string) (string, error) {
		if calls >= len(answers) {
			t.Fatalf("prompt called %d times, only %d answers scripted", calls+1, len(answers))
		}

		answer := answers[calls]
		calls++
		return answer, nil
	}

	return fn, &calls
}

func TestOp(t *testing.T) {
	t.Run("Kind", func(t *testing.T) {
		entry := entryFixture()

		tc := []struct {
			name string
			op   Op
			want Kind
		}{
			{"Create", Op{New: &entry}, KindCreate},
			{"Update", Op{Old: &entry, New: &entry}, KindUpdate},
			{"Delete", Op{Old: &entry}, KindDelete},
		}

		for _, c := range tc {
			t.Run(c.name, func(t *testing.T) {
				if got := c.op.Kind(); got != c.want {
					t.Errorf("expected %v, got %v", c.want, got)
				}
			})
		}
	})

	t.Run("IsMajor", func(t *testing.T) {
		base := entryFixture()

		progressOnly := base
		progressOnly.Progress = 65

		statusChange := base
		statusChange.Status = anilist.StatusRepeating

		statusAndScore := base
		statusAndScore.Status = anilist.StatusRepeating
		statusAndScore.Score = intPtr(95)

		twoFields := base
		twoFields.Progress = 65
		twoFields.Score = intPtr(95)

		threeFields := base
		threeFields.Progress = 65
		threeFields.Score = intPtr(95)
		notes := "rewatch soon"
		threeFields.Notes = &notes

		tc := []struct {
			name string
			op   Op
			want bool
		}{
			{"Create Is Major", Op{New: &base}, true},
			{"Delete Is Major", Op{Old: &base}, true},
			{"Progress Only Update Is Minor", Op{Old: &base, New: &progressOnly}, false},
			{"Status Change Is Major", Op{Old: &base, New: &statusChange}, true},
			{"Status And Score Is Major", Op{Old: &base, New: &statusAndScore}, true},
			{"Two Field Update Is Minor", Op{Old: &base, New: &twoFields}, false},
			{"Three Field Update Is Major", Op{Old: &base, New: &threeFields}, true},
		}

		for _, c := range tc {
			t.Run(c.name, func(t *testing.T) {
				if got := c.op.IsMajor(); got != c.want {
					t.Errorf("expected IsMajor=%v, got %v", c.want, got)
				}
			})
		}
	})

	t.Run("Describe", func(t *testing.T) {
		t.Run("Create", func(t *testing.T) {
			entry := entryFixture()
			got := Op{New: &entry}.Describe()

			for _, want := range []string{"Adding", "Fullmetal Alchemist: Brotherhood", "media 5114", "COMPLETED"} {
				if !strings.Contains(got, want) {
					t.Errorf("expected description to contain %q, got %q", want, got)
				}
			}
		})

		t.Run("Delete", func(t *testing.T) {
			entry := entryFixture()
			got := Op{Old: &entry}.Describe()

			if !strings.Contains(got, "Deleting `Fullmetal Alchemist: Brotherhood` (media 5114).") {
				t.Errorf("unexpected description %q", got)
			}
		})

		t.Run("Update Lists Changed Fields", func(t *testing.T) {
			old := entryFixture()
			updated := old
			updated.Progress = 65
			updated.Score = intPtr(95)

			got := Op{Old: &old, New: &updated}.Describe()

			for _, want := range []string{
				"Modifying existing entry for `Fullmetal Alchemist: Brotherhood` (media 5114):",
				"score: 90 -> 95",
				"progress: 64 -> 65",
			} {
				if !strings.Contains(got, want) {
					t.Errorf("expected description to contain %q, got %q", want, got)
				}
			}
		})
	})

	t.Run("Title Falls Back To The New Entry", func(t *testing.T) {
		entry := entryFixture()
		if got := (Op{New: &entry}).Title(); got != "Fullmetal Alchemist: Brotherhood" {
			t.Errorf("unexpected title %q", got)
		}
	})
}

func TestAutoApprove(t *testing.T) {
	entry := entryFixture()

	ok, err := AutoApprove{}.Confirm(Op{Old: &entry})
	if err != nil || !ok {
		t.Errorf("expected a delete to be approved, got ok=%v err=%v", ok, err)
	}
}

func TestAutoDecline(t *testing.T) {
	base := entryFixture()

	t.Run("Declines Major Operations", func(t *testing.T) {
		ok, err := AutoDecline{}.Confirm(Op{New: &base})
		if err != nil || ok {
			t.Errorf("expected a create to be declined, got ok=%v err=%v", ok, err)
		}
	})

	t.Run("Applies Minor Updates", func(t *testing.T) {
		updated := base
		updated.Progress = 65

		ok, err := AutoDecline{}.Confirm(Op{Old: &base, New: &updated})
		if err != nil || !ok {
			t.Errorf("expected a minor update to apply, got ok=%v err=%v", ok, err)
		}
	})
}

func TestInteractive(t *testing.T) {
	entry := entryFixture()

	t.Run("Approves On Y", func(t *testing.T) {
		tc := []string{"y", "yes", " Y \n", "yep"}

		for _, answer := range tc {
			prompt, calls := scriptedPrompt(t, answer)
			c := NewInteractive(prompt, &bytes.Buffer{})

			ok, err := c.Confirm(Op{Old: &entry})
			if err != nil || !ok {
				t.Errorf("answer %q: expected approval, got ok=%v err=%v", answer, ok, err)
			}
			if *calls != 1 {
				t.Errorf("answer %q: expected 1 prompt, got %d", answer, *calls)
			}
		}
	})

	t.Run("Skips On S", func(t *testing.T) {
		for _, answer := range []string{"s", "skip", "SKIP"} {
			prompt, _ := scriptedPrompt(t, answer)
			c := NewInteractive(prompt, &bytes.Buffer{})

			ok, err := c.Confirm(Op{Old: &entry})
			if err != nil {
				t.Errorf("answer %q: expected a skip, got error %v", answer, err)
			}
			if ok {
				t.Errorf("answer %q: expected the operation to be skipped", answer)
			}
		}
	})

	t.Run("Aborts On N", func(t *testing.T) {
		prompt, _ := scriptedPrompt(t, "n")
		c := NewInteractive(prompt, &bytes.Buffer{})

		ok, err := c.Confirm(Op{Old: &entry})
		if ok {
			t.Error("expected the operation to be withheld on abort")
		}
		if !errors.Is(err, shared.ErrUserAbort) {
			t.Errorf("expected ErrUserAbort, got %v", err)
		}
	})

	t.Run("Escalates On Force", func(t *testing.T) {
		prompt, calls := scriptedPrompt(t, "force")
		c := NewInteractive(prompt, &bytes.Buffer{})

		ok, err := c.Confirm(Op{Old: &entry})
		if err != nil || !ok {
			t.Fatalf("expected force to approve, got ok=%v err=%v", ok, err)
		}

		ok, err = c.Confirm(Op{New: &entry})
		if err != nil || !ok {
			t.Errorf("expected the next major operation to auto-apply, got ok=%v err=%v", ok, err)
		}
		if *calls != 1 {
			t.Errorf("expected no further prompts after force, got %d calls", *calls)
		}
	})

	t.Run("Reprompts On Unrecognized Input", func(t *testing.T) {
		prompt, calls := scriptedPrompt(t, "maybe", "", "y")
		c := NewInteractive(prompt, &bytes.Buffer{})

		ok, err := c.Confirm(Op{Old: &entry})
		if err != nil || !ok {
			t.Errorf("expected eventual approval, got ok=%v err=%v", ok, err)
		}
		if *calls != 3 {
			t.Errorf("expected 3 prompts, got %d", *calls)
		}
	})

	t.Run("Minor Update Skips The Prompt", func(t *testing.T) {
		updated := entry
		updated.Progress = 65

		var out bytes.Buffer
		prompt, calls := scriptedPrompt(t)
		c := NewInteractive(prompt, &out)

		ok, err := c.Confirm(Op{Old: &entry, New: &updated})
		if err != nil || !ok {
			t.Errorf("expected a minor update to apply, got ok=%v err=%v", ok, err)
		}
		if *calls != 0 {
			t.Errorf("expected no prompts, got %d", *calls)
		}
		if !strings.Contains(out.String(), "progress: 64 -> 65") {
			t.Errorf("expected the diff to be written, got %q", out.String())
		}
	})

	t.Run("Prompt Failure Aborts", func(t *testing.T) {
		failing := func(string) (string, error) { return "", errors.New("stdin closed") }
		c := NewInteractive(failing, &bytes.Buffer{})

		if _, err := c.Confirm(Op{Old: &entry}); !errors.Is(err, shared.ErrUserAbort) {
			t.Errorf("expected ErrUserAbort, got %v", err)
		}
	})
}

func TestLinePrompt(t *testing.T) {
	t.Run("Reads Sequential Answers", func(t *testing.T) {
		var out bytes.Buffer
		prompt := LinePrompt(strings.NewReader("y\nskip\n"), &out)

		first, err := prompt("Is this correct? ")
		if err != nil || strings.TrimSpace(first) != "y" {
			t.Errorf("expected %q, got %q (err %v)", "y", first, err)
		}

		second, err := prompt("Is this correct? ")
		if err != nil || strings.TrimSpace(second) != "skip" {
			t.Errorf("expected %q, got %q (err %v)", "skip", second, err)
		}

		if !strings.Contains(out.String(), "Is this correct? ") {
			t.Errorf("expected the question to be written, got %q", out.String())
		}
	})

	t.Run("Accepts A Final Line Without Newline", func(t *testing.T) {
		prompt := LinePrompt(strings.NewReader("y"), &bytes.Buffer{})

		answer, err := prompt("? ")
		if err != nil || answer != "y" {
			t.Errorf("expected %q, got %q (err %v)", "y", answer, err)
		}
	})

	t.Run("Errors On Exhausted Input", func(t *testing.T) {
		prompt := LinePrompt(strings.NewReader(""), &bytes.Buffer{})

		if _, err := prompt("? "); err == nil {
			t.Error("expected an error when input is exhausted")
		}
	})
}
