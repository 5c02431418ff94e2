package core

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/tidwall/gjson"

	"github.com/skerrick/gantry/pkg/dispatch"
	"github.com/skerrick/gantry/pkg/structs"
)

const maxConditionBody = 1 << 20

// conditionChecker decides whether a task's preconditions hold before a run.
// Anything that goes wrong while evaluating (bad config, unreachable source,
// missing field) counts as the condition not holding: the run is skipped,
// never failed.
type conditionChecker struct {
	clock  Clock
	client dispatch.Doer
}

// Check evaluates the task's conditions in order. It returns false and a
// human readable reason on the first condition that does not hold. A task
// with no conditions always passes.
func (c *conditionChecker) Check(ctx context.Context, task *structs.Task) (bool, string) {
	for i, cond := range task.Conditions {
		ok, why := c.check(ctx, task, &cond)
		if !ok {
			return false, fmt.Sprintf("condition %d (%s) not met: %s", i+1, cond.Type, why)
		}
	}
	return true, ""
}

func (c *conditionChecker) check(ctx context.Context, task *structs.Task, cond *structs.Condition) (bool, string) {
	switch cond.Type {
	case structs.ConditionTime:
		return c.checkTime(cond)
	case structs.ConditionVariable:
		v, ok := task.Vars[cond.Field]
		if !ok {
			return false, fmt.Sprintf("variable %q is not set", cond.Field)
		}
		if cond.Operator == structs.OpExists {
			return true, ""
		}
		return compare(v, cond.Operator, cond.Value)
	case structs.ConditionAPIResponse:
		return c.checkAPI(ctx, cond)
	default:
		return false, fmt.Sprintf("unknown condition type %q", cond.Type)
	}
}

// checkTime compares the current time against the condition value, an
// RFC3339 instant. Equals and contains match on the formatted string.
func (c *conditionChecker) checkTime(cond *structs.Condition) (bool, string) {
	now := c.clock.Now().UTC()

	switch cond.Operator {
	case structs.OpExists:
		return true, ""
	case structs.OpGreater, structs.OpLess:
		want, err := time.Parse(time.RFC3339, cond.Value)
		if err != nil {
			return false, fmt.Sprintf("bad time value %q", cond.Value)
		}
		if cond.Operator == structs.OpGreater {
			if now.After(want) {
				return true, ""
			}
			return false, fmt.Sprintf("%s is not after %s", now.Format(time.RFC3339), cond.Value)
		}
		if now.Before(want) {
			return true, ""
		}
		return false, fmt.Sprintf("%s is not before %s", now.Format(time.RFC3339), cond.Value)
	default:
		return compare(now.Format(time.RFC3339), cond.Operator, cond.Value)
	}
}

// checkAPI fetches the condition source and compares one field of the
// response body, located by a dot path.
func (c *conditionChecker) checkAPI(ctx context.Context, cond *structs.Condition) (bool, string) {
	if cond.Source == "" {
		return false, "no source url configured"
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, cond.Source, nil)
	if err != nil {
		return false, fmt.Sprintf("bad source url: %v", err)
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return false, fmt.Sprintf("fetching %s: %v", cond.Source, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxConditionBody))
	if err != nil {
		return false, fmt.Sprintf("reading %s: %v", cond.Source, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return false, fmt.Sprintf("%s returned status %d", cond.Source, resp.StatusCode)
	}

	res := gjson.GetBytes(body, cond.Field)
	if !res.Exists() {
		return false, fmt.Sprintf("field %q not present in response", cond.Field)
	}
	if cond.Operator == structs.OpExists {
		return true, ""
	}
	return compare(res.String(), cond.Operator, cond.Value)
}

// compare applies the operator to an observed and an expected value.
func compare(observed string, op structs.Operator, want string) (bool, string) {
	switch op {
	case structs.OpEquals:
		if observed == want {
			return true, ""
		}
		return false, fmt.Sprintf("%q != %q", observed, want)
	case structs.OpContains:
		if strings.Contains(observed, want) {
			return true, ""
		}
		return false, fmt.Sprintf("%q does not contain %q", observed, want)
	case structs.OpGreater, structs.OpLess:
		return compareOrdered(observed, op, want)
	case structs.OpExists:
		return true, ""
	default:
		return false, fmt.Sprintf("unknown operator %q", op)
	}
}

// compareOrdered orders numerically when both sides parse as numbers and
// lexicographically otherwise.
func compareOrdered(observed string, op structs.Operator, want string) (bool, string) {
	var less, greater bool
	a, errA := strconv.ParseFloat(observed, 64)
	b, errB := strconv.ParseFloat(want, 64)
	if errA == nil && errB == nil {
		less, greater = a < b, a > b
	} else {
		less, greater = observed < want, observed > want
	}

	if op == structs.OpGreater {
		if greater {
			return true, ""
		}
		return false, fmt.Sprintf("%q is not greater than %q", observed, want)
	}
	if less {
		return true, ""
	}
	return false, fmt.Sprintf("%q is not less than %q", observed, want)
}
