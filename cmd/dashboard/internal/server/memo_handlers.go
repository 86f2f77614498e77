package server

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/startupverse/dashboard/pkg/sdk"
)

// MemoData is the memo template payload.
type MemoData struct {
	Memo    *sdk.Memo
	Startup *sdk.Startup
	// StartupError is set when the memo loaded but its startup did not.
	StartupError string
}

// HandleMemo renders one memo with the startup it was written for.
func HandleMemo(deps *PageDependencies) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		backend := deps.backendFor(r)

		memo, err := backend.GetMemo(r.Context(), id)
		if err != nil {
			if sdk.IsNotFound(err) {
				HandleNotFound(deps)(w, r)
				return
			}
			deps.Logger.Warnw("get memo failed", "memo", id, "error", err)
			p := deps.page(w, r, "Memo")
			var status int
			p.Error, status = backendError("memo", err)
			p.Data = MemoData{}
			deps.render(w, status, "memo", p)
			return
		}

		data := MemoData{Memo: memo}
		if memo.StartupID != "" {
			startup, err := backend.GetStartup(r.Context(), memo.StartupID)
			if err != nil {
				deps.Logger.Warnw("get startup failed", "startup", memo.StartupID, "error", err)
				data.StartupError, _ = backendError("startup", err)
			} else {
				data.Startup = startup
			}
		}

		title := "Memo"
		if data.Startup != nil {
			title = data.Startup.DisplayName() + " Memo"
		}
		p := deps.page(w, r, title)
		p.Data = data
		deps.render(w, http.StatusOK, "memo", p)
	}
}
