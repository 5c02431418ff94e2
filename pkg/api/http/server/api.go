package server

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/skerrick/gantry/pkg/api"
	"github.com/skerrick/gantry/pkg/api/http/common"
	"github.com/skerrick/gantry/pkg/structs"
)

const (
	wait = 30 * time.Second

	defExecutions = 100
	defUpcoming   = 50
)

type Server struct {
	addr       string
	debug      bool
	svc        api.API
	exit       chan os.Signal
	httpserver *http.Server
}

func NewServer(addr string, debug bool) *Server {
	return &Server{
		addr:  addr,
		debug: debug,
		exit:  make(chan os.Signal, 1),
	}
}

// Handler returns the route set served by ServeForever. Exposed so the
// routes can be driven by a test server as well.
func (s *Server) Handler(svc api.API) http.Handler {
	s.svc = svc

	router := mux.NewRouter()
	router.HandleFunc("/healthz", s.Health).Methods(http.MethodGet)
	router.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)

	// fixed paths before the {task_id} template so mux never reads
	// "upcoming" or "ready" as a task id
	router.HandleFunc(common.API_TASKS_UPCOMING, s.UpcomingTasks).Methods(http.MethodGet)
	router.HandleFunc(common.API_TASKS_READY, s.ReadyTasks).Methods(http.MethodGet)
	router.HandleFunc(common.API_TASKS, s.Tasks).Methods(http.MethodGet, http.MethodPost)
	router.HandleFunc(common.API_TASK, s.Task).Methods(http.MethodGet, http.MethodPatch, http.MethodDelete)
	router.HandleFunc(common.API_TASK_PAUSE, s.PauseTask).Methods(http.MethodPatch)
	router.HandleFunc(common.API_TASK_RESUME, s.ResumeTask).Methods(http.MethodPatch)
	router.HandleFunc(common.API_TASK_RUN, s.RunTask).Methods(http.MethodPost)
	router.HandleFunc(common.API_TASK_EXECUTIONS, s.Executions).Methods(http.MethodGet)
	router.HandleFunc(common.API_TASK_WEBHOOKS, s.Webhooks).Methods(http.MethodPost, http.MethodDelete)
	router.HandleFunc(common.API_HOOK, s.HandleHook).Methods(http.MethodPost)

	if s.debug {
		log.Println("Debug enabled, adding per-request logging middleware")
		router.Use(loggingMiddleware)
	}
	return router
}

func (s *Server) ServeForever(svc api.API) error {
	s.httpserver = &http.Server{
		Handler:      s.Handler(svc),
		Addr:         s.addr,
		WriteTimeout: 15 * time.Second,
		ReadTimeout:  15 * time.Second,
	}

	go func() {
		log.Println("Listening on", s.httpserver.Addr)
		if err := s.httpserver.ListenAndServe(); err != nil {
			log.Println(err)
		}
	}()

	signal.Notify(s.exit, os.Interrupt)
	defer s.Close()
	<-s.exit

	ctx, cancel := context.WithTimeout(context.Background(), wait)
	defer cancel()
	s.httpserver.Shutdown(ctx)
	os.Exit(0)
	return nil
}

func (s *Server) Tasks(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		s.listTasks(w, r)
	case http.MethodPost:
		s.createTask(w, r)
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

func (s *Server) createTask(w http.ResponseWriter, r *http.Request) {
	ctr := &structs.CreateTaskRequest{}
	err := unmarshalJson(w, r, ctr)
	if err != nil {
		return
	}

	task, err := s.svc.CreateTask(r.Context(), ctr)
	if err != nil {
		http.Error(w, err.Error(), mapError(err))
		return
	}

	err = json.NewEncoder(w).Encode(task)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

func (s *Server) listTasks(w http.ResponseWriter, r *http.Request) {
	q := &structs.Query{}
	err := unmarshalQuery(w, r, q)
	if err != nil {
		return
	}

	items, err := s.svc.ListTasks(r.Context(), q)
	if err != nil {
		http.Error(w, err.Error(), mapError(err))
		return
	}
	if s.debug {
		log.Println(r.URL, "returned", len(items), "items")
	}

	err = json.NewEncoder(w).Encode(items)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

func (s *Server) Task(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "task_id")
	if !ok {
		return
	}
	switch r.Method {
	case http.MethodGet:
		s.getTask(w, r, id)
	case http.MethodPatch:
		s.updateTask(w, r, id)
	case http.MethodDelete:
		s.deleteTask(w, r, id)
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

func (s *Server) getTask(w http.ResponseWriter, r *http.Request, id string) {
	task, err := s.svc.GetTask(r.Context(), id)
	if err != nil {
		http.Error(w, err.Error(), mapError(err))
		return
	}

	err = json.NewEncoder(w).Encode(task)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

func (s *Server) updateTask(w http.ResponseWriter, r *http.Request, id string) {
	utr := &structs.UpdateTaskRequest{}
	err := unmarshalJson(w, r, utr)
	if err != nil {
		return
	}

	task, err := s.svc.UpdateTask(r.Context(), id, utr)
	if err != nil {
		http.Error(w, err.Error(), mapError(err))
		return
	}

	err = json.NewEncoder(w).Encode(task)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

func (s *Server) deleteTask(w http.ResponseWriter, r *http.Request, id string) {
	err := s.svc.DeleteTask(r.Context(), id)
	if err != nil {
		http.Error(w, err.Error(), mapError(err))
		return
	}

	err = json.NewEncoder(w).Encode(&common.DeleteResponse{Deleted: 1})
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

func (s *Server) PauseTask(w http.ResponseWriter, r *http.Request) {
	s.toggleOp(w, r, s.svc.PauseTask)
}

func (s *Server) ResumeTask(w http.ResponseWriter, r *http.Request) {
	s.toggleOp(w, r, s.svc.ResumeTask)
}

// toggleOp runs a status flip (pause / resume) and returns the updated task.
func (s *Server) toggleOp(w http.ResponseWriter, r *http.Request, fn func(context.Context, string) (*structs.Task, error)) {
	id, ok := pathID(w, r, "task_id")
	if !ok {
		return
	}

	task, err := fn(r.Context(), id)
	if err != nil {
		http.Error(w, err.Error(), mapError(err))
		return
	}

	err = json.NewEncoder(w).Encode(task)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

func (s *Server) RunTask(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "task_id")
	if !ok {
		return
	}

	exec, err := s.svc.RunNow(r.Context(), id)
	if err != nil {
		// a dispatch failure still produced an execution record; callers
		// get the error text plus the usual status mapping
		http.Error(w, err.Error(), mapError(err))
		return
	}

	err = json.NewEncoder(w).Encode(exec)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

func (s *Server) Executions(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "task_id")
	if !ok {
		return
	}
	limit, err := queryInt(w, r, "limit", defExecutions)
	if err != nil {
		return
	}

	items, err := s.svc.Executions(r.Context(), id, limit)
	if err != nil {
		http.Error(w, err.Error(), mapError(err))
		return
	}

	err = json.NewEncoder(w).Encode(items)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

func (s *Server) UpcomingTasks(w http.ResponseWriter, r *http.Request) {
	userID := r.URL.Query().Get("user_id")
	limit, err := queryInt(w, r, "limit", defUpcoming)
	if err != nil {
		return
	}

	items, err := s.svc.UpcomingTasks(r.Context(), userID, limit)
	if err != nil {
		http.Error(w, err.Error(), mapError(err))
		return
	}

	err = json.NewEncoder(w).Encode(items)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

func (s *Server) ReadyTasks(w http.ResponseWriter, r *http.Request) {
	limit, err := queryInt(w, r, "limit", defUpcoming)
	if err != nil {
		return
	}

	items, err := s.svc.ReadyTasks(r.Context(), limit)
	if err != nil {
		http.Error(w, err.Error(), mapError(err))
		return
	}

	err = json.NewEncoder(w).Encode(items)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

func (s *Server) Webhooks(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "task_id")
	if !ok {
		return
	}
	switch r.Method {
	case http.MethodPost:
		s.createWebhook(w, r, id)
	case http.MethodDelete:
		s.deleteWebhooks(w, r, id)
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

func (s *Server) createWebhook(w http.ResponseWriter, r *http.Request, id string) {
	resp, err := s.svc.CreateWebhook(r.Context(), id)
	if err != nil {
		http.Error(w, err.Error(), mapError(err))
		return
	}

	err = json.NewEncoder(w).Encode(resp)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

func (s *Server) deleteWebhooks(w http.ResponseWriter, r *http.Request, id string) {
	deleted, err := s.svc.DeleteWebhooks(r.Context(), id)
	if err != nil {
		http.Error(w, err.Error(), mapError(err))
		return
	}

	err = json.NewEncoder(w).Encode(&common.DeleteResponse{Deleted: deleted})
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

// HandleHook is the inbound trigger endpoint for external callers. The
// shared secret travels in a header; the request body is the caller's
// payload and is not interpreted by the engine.
func (s *Server) HandleHook(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "webhook_id")
	if !ok {
		return
	}

	exec, err := s.svc.HandleWebhook(r.Context(), id, r.Header.Get(common.HeaderSecret))
	if err != nil {
		http.Error(w, err.Error(), mapError(err))
		return
	}

	err = json.NewEncoder(w).Encode(exec)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

func (s *Server) Close() error {
	s.exit <- os.Interrupt
	return nil
}

func (s *Server) Health(w http.ResponseWriter, r *http.Request) {
	json.NewEncoder(w).Encode(map[string]bool{"ok": true})
}
