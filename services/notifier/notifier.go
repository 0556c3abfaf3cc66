// Package notifier decides after each run whether to send a mail and what it says
package notifier

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"sjsage522/fundgrubenotifier/internal/delta"
	"sjsage522/fundgrubenotifier/logger"
	apperrors "sjsage522/fundgrubenotifier/pkg/errors"
	"sjsage522/fundgrubenotifier/services/storage"
)

// Fixed subjects and bodies; new item mails are titled "<n> new items"
const (
	// SubjectError is the subject of a run failure mail, its body is the error text
	SubjectError = "An error occurred"
	// SubjectErrorFixed is the subject of the mail sent once a failure is gone
	SubjectErrorFixed = "Error fixed"
	// BodyErrorFixed is the body of the error fixed mail
	BodyErrorFixed = "Previous error fixed"
)

// Notifier sends run outcome mails and remembers the last reported error
// category so a persisting failure is reported once
type Notifier struct {
	mailer Mailer
	store  storage.ErrorStore
}

// New creates a notifier
func New(mailer Mailer, store storage.ErrorStore) *Notifier {
	return &Notifier{mailer: mailer, store: store}
}

// Notify reports the outcome of a run. runErr is the pipeline error, nil on
// success; merged is the merged result set with its newCount new records first
func (n *Notifier) Notify(ctx context.Context, newCount int, merged []delta.Record, runErr error) error {
	previous, err := n.store.LoadErrorCategory(ctx)
	if err != nil {
		return apperrors.NewStorage("failed to load previous error category", err)
	}

	switch {
	case runErr != nil:
		category := string(apperrors.Category(runErr))
		if category == previous {
			logger.ForNotifier().Debug().
				Str("category", category).
				Msg("Error already reported, not sending")
			return nil
		}
		if sent, err := n.send(ctx, SubjectError, runErr.Error()); !sent {
			return err
		}
		if err := n.store.SaveErrorCategory(ctx, category); err != nil {
			return apperrors.NewStorage("failed to save error category", err)
		}

	case newCount > 0:
		if _, err := n.send(ctx, fmt.Sprintf("%d new items", newCount), FormatRecords(merged[:min(newCount, len(merged))])); err != nil {
			return err
		}

	case previous != "":
		if sent, err := n.send(ctx, SubjectErrorFixed, BodyErrorFixed); !sent {
			return err
		}
		if err := n.store.ClearErrorCategory(ctx); err != nil {
			return apperrors.NewStorage("failed to clear error category", err)
		}
	}
	return nil
}

// send reports whether the mail went out. A disabled mailer is not an
// error, but nothing was sent and the stored category must not change
func (n *Notifier) send(ctx context.Context, subject, body string) (bool, error) {
	err := n.mailer.Send(ctx, subject, body)
	if errors.Is(err, ErrMailDisabled) {
		return false, nil
	}
	if err != nil {
		return false, apperrors.NewNotification(fmt.Sprintf("failed to send %q", subject), err)
	}
	logger.ForNotifier().Info().Str("subject", subject).Msg("Notification sent")
	return true, nil
}

// FormatRecords renders one line per record: name, price, store and image
// separated by two spaces
func FormatRecords(records []delta.Record) string {
	lines := make([]string, len(records))
	for i, r := range records {
		lines[i] = strings.Join([]string{r.Name, r.Price, r.Store, r.Image}, "  ")
	}
	return strings.Join(lines, "\n")
}
