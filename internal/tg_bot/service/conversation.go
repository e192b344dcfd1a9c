package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/DenisKhanov/HashieldBot/internal/tg_bot/api"
	"github.com/DenisKhanov/HashieldBot/internal/tg_bot/constant"
	"github.com/DenisKhanov/HashieldBot/internal/tg_bot/jobs"
	"github.com/DenisKhanov/HashieldBot/internal/tg_bot/models"
	"github.com/DenisKhanov/HashieldBot/internal/tg_bot/repository"
)

// replyHandler consumes the free-text answer to a pending job.
type replyHandler func(ctx context.Context, ev *Event, job *models.Job) error

func (b *TgBotServices) handleReply(action models.JobAction, fn replyHandler) error {
	if _, ok := b.replies[action]; ok {
		return fmt.Errorf("reply handler for %s already registered", action)
	}
	b.replies[action] = fn
	return nil
}

func (b *TgBotServices) registerReplies() error {
	for action, fn := range map[models.JobAction]replyHandler{
		models.JobEnterAccessToken:         b.replyAccessToken,
		models.JobEnterWalletPrivateKey:    b.replyWalletPrivateKey,
		models.JobEnterWalletName:          b.replyWalletName,
		models.JobImportCredentials:        b.replyImportCredentials,
		models.JobUpdateCredential:         b.replyUpdateCredential,
		models.JobImportDefiWallets:        b.replyImportDefiWallets,
		models.JobUpdateDefiWallet:         b.replyUpdateDefiWallet,
		models.JobUpdateWalletOfDefiWallet: b.replyUpdateWalletOfDefiWallet,
		models.JobUpdateProfile:            b.replyUpdateProfile,
	} {
		if err := b.handleReply(action, fn); err != nil {
			return err
		}
	}
	return nil
}

// replyStatus maps the outcome of a reply handler to the next job status.
// Invalid input and infra failures leave the job open for another attempt;
// a vanished entity, a revoked session or an unreadable payload ends it.
func replyStatus(err error) models.JobStatus {
	var uerr *UserError
	switch {
	case err == nil:
		return models.JobDone
	case errors.As(err, &uerr):
		return models.JobPending
	case repository.IsErrNotFound(err), errors.Is(err, api.ErrUnauthorized), errors.Is(err, jobs.ErrPayload):
		return models.JobCancelled
	default:
		return models.JobPending
	}
}

// resolveReply attributes a text message to the newest pending job of the
// user. The user's message is always deleted since it may carry a secret.
func (b *TgBotServices) resolveReply(ctx context.Context, ev *Event) error {
	var herr error
	status := models.JobPending
	job, err := b.Jobs.Resolve(ctx, ev.UserID, func(ctx context.Context, job *models.Job) models.JobStatus {
		fn, ok := b.replies[job.Action]
		if !ok {
			herr = fmt.Errorf("no reply handler for job action %q", job.Action)
			status = models.JobCancelled
			return status
		}
		herr = fn(ctx, ev, job)
		status = replyStatus(herr)
		return status
	})
	switch {
	case errors.Is(err, jobs.ErrNoJob):
		_, err = b.sendMessage(ev.ChatID, constant.MESSAGE_UNKNOWN, ev.MessageID, nil)
		return err
	case errors.Is(err, jobs.ErrExpired):
		b.log.WithField("user", ev.UserID).Debugf("Job %s (%s) expired", job.ID, job.Action)
		b.deleteMessages(ev.ChatID, append(job.Cleanup, ev.MessageID)...)
		b.warning(ev, constant.MESSAGE_JOB_EXPIRED)
		return nil
	case err != nil:
		return err
	}

	b.deleteMessages(ev.ChatID, ev.MessageID)
	if status != models.JobPending {
		b.deleteMessages(ev.ChatID, job.Cleanup...)
	}
	return herr
}

// ask sends a prompt and opens a job waiting for its answer. The prompt is
// deleted once the job is answered.
func (b *TgBotServices) ask(ctx context.Context, ev *Event, action models.JobAction, payload any, text string) error {
	promptID, err := b.prompt(ev, text+"\n\n<i>Send /cancel to abort.</i>")
	if err != nil {
		return err
	}
	if _, err = b.Jobs.Open(ctx, ev.UserID, action, payload, promptID); err != nil {
		b.deleteMessages(ev.ChatID, promptID)
		return err
	}
	return nil
}

// errNotFound marks a stale reference to a remote entity.
func errNotFound(what, id string) error {
	return fmt.Errorf("%s %q: %w", what, id, repository.ErrNotFound)
}
