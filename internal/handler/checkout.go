package handler

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/dukerupert/choreadmin/internal/flash"
	"github.com/dukerupert/choreadmin/internal/logging"
	"github.com/dukerupert/choreadmin/internal/model"
	"github.com/dukerupert/choreadmin/internal/store"
)

const doItIDField = "do_it_id"

type DoItGetter interface {
	GetByID(ctx context.Context, id int64) (*model.DoIt, error)
}

type CompletionRecorder interface {
	RecordCompletion(ctx context.Context, doItID int64, doneAt time.Time) store.CommitResult
}

// CheckoutHandler records that a chore was done. Input problems and
// recoverable write failures are reported with a notice and a redirect to
// the list; anything else is a 500.
type CheckoutHandler struct {
	doIts   DoItGetter
	didIts  CompletionRecorder
	flash   *flash.Store
	listURL string
	now     func() time.Time
}

func NewCheckoutHandler(doIts DoItGetter, didIts CompletionRecorder, fs *flash.Store, listURL string) *CheckoutHandler {
	return &CheckoutHandler{
		doIts:   doIts,
		didIts:  didIts,
		flash:   fs,
		listURL: listURL,
		now:     time.Now,
	}
}

func (h *CheckoutHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := logging.FromContext(ctx)

	if err := r.ParseForm(); err != nil || len(r.PostForm) == 0 {
		h.notice(w, r, flash.Error("Could not get form from request."))
		return
	}
	raw := r.PostForm.Get(doItIDField)
	if raw == "" {
		h.notice(w, r, flash.Error("Could not get form from request."))
		return
	}

	id, ok := parseID(raw)
	if !ok {
		h.notice(w, r, flash.Error("DoIt not found."))
		return
	}
	doIt, err := h.doIts.GetByID(ctx, id)
	if err != nil {
		logger.Error("checkout lookup", "doit_id", id, "error", err)
		http.Error(w, "Internal error", http.StatusInternalServerError)
		return
	}
	if doIt == nil {
		h.notice(w, r, flash.Error("DoIt not found."))
		return
	}

	doneAt := h.now().UTC()
	result := h.didIts.RecordCompletion(ctx, doIt.ID, doneAt)
	switch {
	case result.OK():
		logger.Info("didit recorded", "doit_id", doIt.ID, "didit_id", result.ID)
		h.notice(w, r, flash.Info(fmt.Sprintf("Recorded a didit for DoIt, ID: %d, at %s", doIt.ID, doneAt.Format(time.DateTime))))
	case result.Recoverable:
		logger.Warn("didit not recorded", "doit_id", doIt.ID, "error", result.Err)
		h.notice(w, r, flash.Error(fmt.Sprintf("Failed to record a didit for DoIt, ID: %d. %v", doIt.ID, result.Err)))
	default:
		logger.Error("record didit", "doit_id", doIt.ID, "error", result.Err)
		http.Error(w, "Internal error", http.StatusInternalServerError)
	}
}

func (h *CheckoutHandler) notice(w http.ResponseWriter, r *http.Request, msg flash.Message) {
	h.flash.Set(w, msg)
	http.Redirect(w, r, h.listURL, http.StatusSeeOther)
}
