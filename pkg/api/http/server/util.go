package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"

	"github.com/skerrick/gantry/internal/utils"
	ge "github.com/skerrick/gantry/pkg/errors"
	"github.com/skerrick/gantry/pkg/structs"
)

var (
	errmap map[int][]error = map[int][]error{
		http.StatusBadRequest: []error{
			ge.ErrInvalidTask,
			ge.ErrMaxExceeded,
			ge.ErrInvalidState,
			ge.ErrInvalidArg,
			ge.ErrNotSupported,
		},
		http.StatusUnauthorized: []error{
			ge.ErrUnauthorized,
		},
		http.StatusNotFound: []error{
			ge.ErrNotFound,
		},
		http.StatusBadGateway: []error{
			ge.ErrExecution,
		},
	}
)

// mapError returns the http status code for a given error from gantry, or
// http.StatusInternalServerError if the error is not recognised.
func mapError(err error) int {
	if err == nil {
		return http.StatusOK
	}
	for code, errs := range errmap {
		for _, e := range errs {
			if errors.Is(err, e) {
				return code
			}
		}
	}
	return http.StatusInternalServerError
}

func unmarshalQuery(w http.ResponseWriter, r *http.Request, out *structs.Query) error {
	q := r.URL.Query()

	if q.Has("limit") {
		limit, err := strconv.Atoi(q.Get("limit"))
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return fmt.Errorf("bad limit: %v", err)
		}
		out.Limit = limit
	}

	if q.Has("offset") {
		offset, err := strconv.Atoi(q.Get("offset"))
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return fmt.Errorf("bad offset: %v", err)
		}
		out.Offset = offset
	}

	if q.Has("task_ids") {
		out.TaskIDs = q["task_ids"]
		for _, id := range out.TaskIDs {
			if !utils.IsValidID(id) {
				http.Error(w, "bad task id", http.StatusBadRequest)
				return fmt.Errorf("bad task id: %v", id)
			}
		}
	}
	if q.Has("user_ids") {
		out.UserIDs = q["user_ids"]
	}
	if q.Has("kinds") {
		out.Kinds = []structs.Kind{}
		for _, k := range q["kinds"] {
			kind := structs.ToKind(k)
			if kind == "" {
				http.Error(w, "bad kind", http.StatusBadRequest)
				return fmt.Errorf("bad kind: %v", k)
			}
			out.Kinds = append(out.Kinds, kind)
		}
	}
	if q.Has("statuses") {
		out.Statuses = []structs.Status{}
		for _, s := range q["statuses"] {
			st := structs.ToStatus(s)
			if st == "" {
				http.Error(w, "bad status", http.StatusBadRequest)
				return fmt.Errorf("bad status: %v", s)
			}
			out.Statuses = append(out.Statuses, st)
		}
	}
	if q.Has("due_before") {
		at, err := time.Parse(time.RFC3339, q.Get("due_before"))
		if err != nil {
			http.Error(w, "bad due_before", http.StatusBadRequest)
			return fmt.Errorf("bad due_before: %v", err)
		}
		out.DueBefore = &at
	}
	if q.Has("order_by_next_run") {
		out.OrderByNextRun = q.Get("order_by_next_run") == "true"
	}

	out.Sanitize()
	return nil
}

// unmarshalJson reads the body of a request and attempts to unmarshal it into the given object.
// This function write an error to the writer if an error occurs, and returns the error.
func unmarshalJson(w http.ResponseWriter, r *http.Request, obj interface{}) error {
	if r.Body == nil {
		http.Error(w, "No body", http.StatusBadRequest)
		return fmt.Errorf("no body")
	}
	d := json.NewDecoder(r.Body)
	d.DisallowUnknownFields() // catch unwanted fields

	err := d.Decode(obj)
	if err != nil {
		// bad JSON or unrecognized json field
		http.Error(w, err.Error(), http.StatusBadRequest)
		return fmt.Errorf("bad json: %v", err)
	}

	return nil
}

// pathID pulls the named mux path variable and checks it looks like an id
// we could have issued.
func pathID(w http.ResponseWriter, r *http.Request, name string) (string, bool) {
	id := mux.Vars(r)[name]
	if !utils.IsValidID(id) {
		http.Error(w, fmt.Sprintf("bad %s", name), http.StatusBadRequest)
		return "", false
	}
	return id, true
}

// queryInt reads an integer query param, falling back to def if unset.
func queryInt(w http.ResponseWriter, r *http.Request, name string, def int) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		http.Error(w, fmt.Sprintf("bad %s", name), http.StatusBadRequest)
		return 0, fmt.Errorf("bad %s: %v", name, err)
	}
	return v, nil
}
