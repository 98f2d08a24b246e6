package server

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/dailymemedigest/memefactory/pkg/errors"
	"github.com/dailymemedigest/memefactory/pkg/memes"
	"github.com/dailymemedigest/memefactory/pkg/news"
	"github.com/dailymemedigest/memefactory/pkg/store"
)

// Meme list paging.
const (
	defaultLimit = 30
	maxLimit     = 100
)

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	ok(w, envelope{
		"status":    "healthy",
		"service":   Service,
		"version":   s.settings.Version,
		"timestamp": s.now().Format(time.RFC3339),
	})
}

func (s *Server) handleMailchimpDebug(w http.ResponseWriter, r *http.Request) {
	st := s.deps.Subscribe.Status(r.Context())
	ok(w, envelope{
		"mailchimp_configured": st.Configured,
		"api_key_set":          st.APIKeySet,
		"server_prefix_set":    st.ServerPrefixSet,
		"list_id_set":          st.ListIDSet,
		"server_prefix":        st.ServerPrefix,
		"list_id":              st.ListID,
		"connection_test":      st.ConnectionTest,
	})
}

type subscribeRequest struct {
	Email       string          `json:"email"`
	Preferences map[string]bool `json:"preferences"`
}

func (s *Server) handleSubscribe(w http.ResponseWriter, r *http.Request) {
	var req subscribeRequest
	if err := decode(r, &req); err != nil {
		s.fail(w, r, err)
		return
	}
	res, err := s.deps.Subscribe.Subscribe(r.Context(), req.Email)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	ok(w, envelope{"message": res.Message})
}

func (s *Server) handlePreferences(w http.ResponseWriter, r *http.Request) {
	var req subscribeRequest
	if err := decode(r, &req); err != nil {
		s.fail(w, r, err)
		return
	}
	res, err := s.deps.Subscribe.UpdatePreferences(r.Context(), req.Email, req.Preferences)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	ok(w, envelope{"message": res.Message})
}

func (s *Server) handleConfirm(w http.ResponseWriter, r *http.Request) {
	res, err := s.deps.Subscribe.Confirm(r.Context(), chi.URLParam(r, "token"))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	ok(w, envelope{"message": res.Message})
}

func (s *Server) handleGenerate(w http.ResponseWriter, r *http.Request) {
	if s.deps.Generator == nil {
		s.fail(w, r, errors.New(errors.ErrCodeNotConfigured, "meme generation is disabled"))
		return
	}
	var req memes.Request
	if err := decode(r, &req); err != nil {
		s.fail(w, r, err)
		return
	}
	if len(req.Trends) == 0 {
		s.fail(w, r, errors.New(errors.ErrCodeInvalidTrends, "Please select at least one AI trend"))
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), s.settings.GenerateTimeout)
	defer cancel()
	res, err := s.deps.Generator.Generate(ctx, req)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	ok(w, envelope{
		"memes":            res.Memes,
		"total_generated":  res.TotalGenerated,
		"successful_count": res.SuccessfulCount,
	})
}

// page reads sort, limit and offset from the query.
func (s *Server) page(r *http.Request) (store.ListOptions, error) {
	limit, err := queryInt(r, "limit", s.settings.PageSize)
	if err != nil {
		return store.ListOptions{}, err
	}
	if limit > maxLimit {
		return store.ListOptions{}, errors.New(errors.ErrCodeInvalidLimit, "Limit cannot exceed %d", maxLimit)
	}
	if limit < 1 {
		return store.ListOptions{}, errors.New(errors.ErrCodeInvalidLimit, "Limit must be at least 1")
	}
	offset, err := queryInt(r, "offset", 0)
	if err != nil {
		return store.ListOptions{}, err
	}
	if offset < 0 {
		return store.ListOptions{}, errors.New(errors.ErrCodeInvalidInput, "Offset cannot be negative")
	}
	return store.ListOptions{Sort: r.URL.Query().Get("sort"), Limit: limit, Offset: offset}.Normalize()
}

func (s *Server) handleListMemes(w http.ResponseWriter, r *http.Request) {
	opts, err := s.page(r)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	list, err := s.deps.Store.List(r.Context(), opts)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	total, err := s.deps.Store.Count(r.Context())
	if err != nil {
		s.fail(w, r, err)
		return
	}
	if list == nil {
		list = []store.Meme{}
	}
	ok(w, envelope{
		"memes":       list,
		"total_count": total,
		"has_more":    opts.Offset+len(list) < total,
		"limit":       opts.Limit,
		"offset":      opts.Offset,
		"sort":        opts.Sort,
	})
}

type voteRequest struct {
	Direction string `json:"direction"`
}

func (s *Server) handleVote(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := errors.ValidateMemeID(id); err != nil {
		s.fail(w, r, err)
		return
	}
	var req voteRequest
	if err := decode(r, &req); err != nil {
		s.fail(w, r, err)
		return
	}
	var delta int
	switch req.Direction {
	case "up":
		delta = 1
	case "down":
		delta = -1
	default:
		s.fail(w, r, errors.New(errors.ErrCodeInvalidVote, "direction must be \"up\" or \"down\""))
		return
	}
	votes, err := s.deps.Store.Vote(r.Context(), id, delta)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	ok(w, envelope{"id": id, "votes": votes})
}

func (s *Server) handleNews(w http.ResponseWriter, r *http.Request) {
	days, err := queryInt(r, "duration", 1)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	articles, err := s.deps.News.Fetch(r.Context(), news.DefaultPreviewTrends, max(days, 1))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	ok(w, envelope{"news": news.Preview(articles, 10)})
}
