// package confirm gates list mutations behind operator approval.
package confirm

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"anisync/internal/anilist"
	"anisync/internal/shared"
)

// Kind names the mutation an [Op] performs.
type Kind int

const (
	KindCreate Kind = iota
	KindUpdate
	KindDelete
)

func (k Kind) String() string {
	switch k {
	case KindCreate:
		return "create"
	case KindUpdate:
		return "update"
	case KindDelete:
		return "delete"
	}

	return "unknown"
}

// Op describes one pending list mutation as a before and after pair. A nil
// Old is a create, a nil New is a delete, and both set is an update.
type Op struct {
	Old *anilist.ListEntry
	New *anilist.ListEntry
}

// Kind derives the mutation kind from which sides of the pair are set.
func (o Op) Kind() Kind {
	switch {
	case o.Old == nil:
		return KindCreate
	case o.New == nil:
		return KindDelete
	}

	return KindUpdate
}

// Title resolves a display title from whichever entry carries media info.
func (o Op) Title() string {
	if o.Old != nil {
		return o.Old.DisplayTitle()
	}

	return o.New.DisplayTitle()
}

// MediaID reports the media both sides of the pair refer to.
func (o Op) MediaID() int {
	if o.Old != nil {
		return o.Old.MediaID
	}

	return o.New.MediaID
}

// IsMajor classifies the operation's blast radius. Creates and deletes are
// always major; an update is major when it changes status or touches three
// or more fields at once.
func (o Op) IsMajor() bool {
	if o.Old == nil || o.New == nil {
		return true
	}

	diff := o.Old.DiffFields(*o.New)
	if len(diff) >= 3 {
		return true
	}

	for _, field := range diff {
		if field == "status" {
			return true
		}
	}

	return false
}

// Describe renders the operation header and, for updates, the field-level
// diff shown to the operator before they are asked to confirm.
func (o Op) Describe() string {
	title := o.Title()

	switch o.Kind() {
	case KindCreate:
		return fmt.Sprintf("Adding `%s` (media %d) to %s.", title, o.MediaID(), o.New.Status)
	case KindDelete:
		return fmt.Sprintf("Deleting `%s` (media %d).", title, o.MediaID())
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Modifying existing entry for `%s` (media %d):", title, o.MediaID())
	for _, field := range o.Old.DiffFields(*o.New) {
		fmt.Fprintf(&b, "\n  %s: %s -> %s", field, o.Old.FieldValue(field), o.New.FieldValue(field))
	}

	return b.String()
}

// Confirmer decides whether a pending mutation is applied. A false result
// with a nil error skips the operation and the run continues; an
// [shared.ErrUserAbort] error halts the run.
type Confirmer interface {
	Confirm(op Op) (bool, error)
}

// AutoApprove applies every operation without prompting.
type AutoApprove struct{}

func (AutoApprove) Confirm(Op) (bool, error) {
	return true, nil
}

// AutoDecline skips every major operation without prompting. Minor updates
// apply in every mode.
type AutoDecline struct{}

func (AutoDecline) Confirm(op Op) (bool, error) {
	return !op.IsMajor(), nil
}

// PromptFunc writes question to the operator and returns one line of input.
type PromptFunc func(question string) (string, error)

// LinePrompt returns a [PromptFunc] that writes questions to w and reads
// newline-terminated answers from r.
func LinePrompt(r io.Reader, w io.Writer) PromptFunc {
	reader := bufio.NewReader(r)

	return func(question string) (string, error) {
		if _, err := fmt.Fprint(w, question); err != nil {
			return "", err
		}

		line, err := reader.ReadString('\n')
		if err != nil && line == "" {
			return "", err
		}

		return line, nil
	}
}

const question = "Is this correct? y/n (stop the syncing process)/s (skip over this item and continue): "

// Interactive prompts the operator for each major operation. Minor updates
// apply without a prompt, though their description is still written so the
// operator sees what changed.
type Interactive struct {
	prompt   PromptFunc
	out      io.Writer
	forceAll bool
}

// NewInteractive creates an [Interactive] confirmer. A nil out defaults to
// [os.Stdout] and a nil prompt reads from [os.Stdin].
func NewInteractive(prompt PromptFunc, out io.Writer) *Interactive {
	if out == nil {
		out = os.Stdout
	}
	if prompt == nil {
		prompt = LinePrompt(os.Stdin, out)
	}

	return &Interactive{prompt: prompt, out: out}
}

// Confirm renders the operation and asks for approval when it is major.
// Answers starting with "y" approve, "skip" or "s" skips, "n" aborts the
// run, and "force" approves plus applies everything for the rest of the
// run. Any other answer asks again.
func (i *Interactive) Confirm(op Op) (bool, error) {
	fmt.Fprintln(i.out, op.Describe())

	if !op.IsMajor() || i.forceAll {
		return true, nil
	}

	for {
		answer, err := i.prompt(question)
		if err != nil {
			return false, fmt.Errorf("%w: prompt failed: %v", shared.ErrUserAbort, err)
		}

		switch answer = strings.ToLower(strings.TrimSpace(answer)); {
		case answer == "skip" || answer == "s":
			return false, nil
		case answer == "n":
			return false, fmt.Errorf("%w: declined %s for media %d", shared.ErrUserAbort, op.Kind(), op.MediaID())
		case answer == "force":
			i.forceAll = true
			return true, nil
		case strings.HasPrefix(answer, "y"):
			return true, nil
		}
	}
}
