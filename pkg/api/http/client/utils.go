package client

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/skerrick/gantry/pkg/api/http/common"
	"github.com/skerrick/gantry/pkg/structs"
)

// genericPost is a helper to POST data to a given URL and unmarshal the response.
// A nil `in` posts an empty body.
func genericPost(addr *url.URL, in interface{}, out interface{}) error {
	var buf io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return err
		}
		buf = bytes.NewBuffer(data)
	}

	resp, err := http.Post(addr.String(), "application/json", buf)
	if err != nil {
		return err
	} else if resp.Body == nil {
		return fmt.Errorf("no response body with status code %d", resp.StatusCode)
	}

	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}

	if resp.StatusCode >= 400 { // some error code, assume message is error message
		return fmt.Errorf("bad status code %d, returned %s", resp.StatusCode, string(body))
	}

	return json.Unmarshal(body, out)
}

// genericPatch is a helper to PATCH data to a given URL and unmarshal the response
func genericPatch(addr *url.URL, in interface{}, out interface{}) error {
	var buf io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return err
		}
		buf = bytes.NewBuffer(data)
	}

	// it's kind of odd the HTTP package doesn't have a Patch method where it has Get & Post
	req, err := http.NewRequest(http.MethodPatch, addr.String(), buf)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	return do(req, out)
}

// genericDelete is a helper to DELETE a given URL and unmarshal the response
func genericDelete(addr *url.URL, out interface{}) error {
	req, err := http.NewRequest(http.MethodDelete, addr.String(), nil)
	if err != nil {
		return err
	}
	return do(req, out)
}

// genericGet is a helper to GET data from a given URL and unmarshal the response.
// Implies the Query string is already set, if needed.
func genericGet(addr *url.URL, out interface{}) error {
	resp, err := http.Get(addr.String())
	if err != nil {
		return err
	} else if resp.Body == nil { // there is no data to read
		if resp.StatusCode >= 400 {
			return fmt.Errorf("bad status code: %d", resp.StatusCode)
		}
		return nil
	}

	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}

	if resp.StatusCode >= 400 { // some error code, assume message is error message
		return fmt.Errorf("bad status code %d, returned %s", resp.StatusCode, string(body))
	}

	return json.Unmarshal(body, out)
}

// hookPost POSTs a webhook trigger payload with the shared secret header set.
func hookPost(addr *url.URL, secret string, payload []byte, out interface{}) error {
	var buf io.Reader
	if len(payload) > 0 {
		buf = bytes.NewBuffer(payload)
	}
	req, err := http.NewRequest(http.MethodPost, addr.String(), buf)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(common.HeaderSecret, secret)

	return do(req, out)
}

// do issues the request and unmarshals the response into out.
func do(req *http.Request, out interface{}) error {
	client := &http.Client{}
	resp, err := client.Do(req)
	if err != nil {
		return err
	} else if resp.Body == nil {
		return fmt.Errorf("no response body with status code %d", resp.StatusCode)
	}

	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}

	if resp.StatusCode >= 400 { // some error code, assume message is error message
		return fmt.Errorf("bad status code %d, returned %s", resp.StatusCode, string(body))
	}

	return json.Unmarshal(body, out)
}

// setQueryString sets the query string of a URL based on the given query object.
func setQueryString(u *url.URL, q *structs.Query) {
	q.Sanitize()
	values := u.Query()

	if q.Limit > 0 {
		values.Set("limit", strconv.Itoa(q.Limit))
	}
	if q.Offset > 0 {
		values.Set("offset", strconv.Itoa(q.Offset))
	}
	if q.TaskIDs != nil {
		values["task_ids"] = q.TaskIDs
	}
	if q.UserIDs != nil {
		values["user_ids"] = q.UserIDs
	}
	if q.Kinds != nil {
		ks := []string{}
		for _, k := range q.Kinds {
			ks = append(ks, string(k))
		}
		values["kinds"] = ks
	}
	if q.Statuses != nil {
		ss := []string{}
		for _, s := range q.Statuses {
			ss = append(ss, string(s))
		}
		values["statuses"] = ss
	}
	if q.DueBefore != nil {
		values.Set("due_before", q.DueBefore.UTC().Format(time.RFC3339))
	}
	if q.OrderByNextRun {
		values.Set("order_by_next_run", "true")
	}

	u.RawQuery = values.Encode()
}

// setLimit sets only the limit query param.
func setLimit(u *url.URL, limit int) {
	if limit <= 0 {
		return
	}
	values := u.Query()
	values.Set("limit", strconv.Itoa(limit))
	u.RawQuery = values.Encode()
}
