package core

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/skerrick/gantry/pkg/structs"
)

func testChecker(now time.Time) *conditionChecker {
	return &conditionChecker{
		clock:  newFakeClock(now),
		client: &http.Client{Timeout: time.Second},
	}
}

func conditionTask(vars map[string]string, conds ...structs.Condition) *structs.Task {
	return &structs.Task{TaskSpec: structs.TaskSpec{Vars: vars, Conditions: conds}}
}

func TestCheckNoConditionsPasses(t *testing.T) {
	c := testChecker(time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC))

	ok, why := c.Check(context.Background(), conditionTask(nil))

	assert.True(t, ok)
	assert.Empty(t, why)
}

func TestCheckTimeConditions(t *testing.T) {
	now := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	c := testChecker(now)

	cases := []struct {
		name string
		op   structs.Operator
		val  string
		want bool
	}{
		{"after past instant", structs.OpGreater, "2024-03-01T09:00:00Z", true},
		{"not after future instant", structs.OpGreater, "2024-03-01T10:30:00Z", false},
		{"before future instant", structs.OpLess, "2024-03-01T10:30:00Z", true},
		{"not before past instant", structs.OpLess, "2024-03-01T09:00:00Z", false},
		{"equals formatted now", structs.OpEquals, "2024-03-01T10:00:00Z", true},
		{"contains date", structs.OpContains, "2024-03-01", true},
		{"exists always holds", structs.OpExists, "", true},
		{"unparseable value fails closed", structs.OpGreater, "tomorrow", false},
	}

	for _, c2 := range cases {
		t.Run(c2.name, func(t *testing.T) {
			task := conditionTask(nil, structs.Condition{
				Type:     structs.ConditionTime,
				Operator: c2.op,
				Value:    c2.val,
			})
			ok, _ := c.Check(context.Background(), task)
			assert.Equal(t, c2.want, ok)
		})
	}
}

func TestCheckVariableConditions(t *testing.T) {
	c := testChecker(time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC))
	vars := map[string]string{"env": "prod", "count": "10"}

	cases := []struct {
		name  string
		field string
		op    structs.Operator
		val   string
		want  bool
	}{
		{"equals", "env", structs.OpEquals, "prod", true},
		{"not equals", "env", structs.OpEquals, "dev", false},
		{"contains", "env", structs.OpContains, "ro", true},
		{"numeric greater", "count", structs.OpGreater, "9", true},
		{"numeric not greater", "count", structs.OpGreater, "11", false},
		{"exists", "env", structs.OpExists, "", true},
		{"exists missing", "region", structs.OpExists, "", false},
		{"missing variable fails closed", "region", structs.OpEquals, "eu", false},
	}

	for _, c2 := range cases {
		t.Run(c2.name, func(t *testing.T) {
			task := conditionTask(vars, structs.Condition{
				Type:     structs.ConditionVariable,
				Field:    c2.field,
				Operator: c2.op,
				Value:    c2.val,
			})
			ok, _ := c.Check(context.Background(), task)
			assert.Equal(t, c2.want, ok)
		})
	}
}

func TestCheckVariableMissingReason(t *testing.T) {
	c := testChecker(time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC))
	task := conditionTask(nil, structs.Condition{
		Type:     structs.ConditionVariable,
		Field:    "region",
		Operator: structs.OpEquals,
		Value:    "eu",
	})

	ok, why := c.Check(context.Background(), task)

	assert.False(t, ok)
	assert.Contains(t, why, `variable "region" is not set`)
	assert.Contains(t, why, "condition 1 (variable) not met")
}

func TestCheckAPIResponse(t *testing.T) {
	svr := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"status": "ready", "count": 3}`)
	}))
	defer svr.Close()

	c := testChecker(time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC))

	cases := []struct {
		name  string
		field string
		op    structs.Operator
		val   string
		want  bool
	}{
		{"field equals", "status", structs.OpEquals, "ready", true},
		{"field not equals", "status", structs.OpEquals, "down", false},
		{"numeric field greater", "count", structs.OpGreater, "2", true},
		{"field exists", "count", structs.OpExists, "", true},
		{"missing field fails closed", "version", structs.OpExists, "", false},
	}

	for _, c2 := range cases {
		t.Run(c2.name, func(t *testing.T) {
			task := conditionTask(nil, structs.Condition{
				Type:     structs.ConditionAPIResponse,
				Source:   svr.URL,
				Field:    c2.field,
				Operator: c2.op,
				Value:    c2.val,
			})
			ok, _ := c.Check(context.Background(), task)
			assert.Equal(t, c2.want, ok)
		})
	}
}

func TestCheckAPIResponseErrorsFailClosed(t *testing.T) {
	broken := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer broken.Close()

	gone := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	gone.Close()

	c := testChecker(time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC))

	for name, source := range map[string]string{
		"bad status":  broken.URL,
		"unreachable": gone.URL,
		"no url":      "",
	} {
		t.Run(name, func(t *testing.T) {
			task := conditionTask(nil, structs.Condition{
				Type:     structs.ConditionAPIResponse,
				Source:   source,
				Field:    "status",
				Operator: structs.OpExists,
			})
			ok, why := c.Check(context.Background(), task)
			assert.False(t, ok)
			assert.NotEmpty(t, why)
		})
	}
}

func TestCheckUnknownTypeFailsClosed(t *testing.T) {
	c := testChecker(time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC))
	task := conditionTask(nil, structs.Condition{
		Type:     "moon_phase",
		Operator: structs.OpEquals,
		Value:    "full",
	})

	ok, why := c.Check(context.Background(), task)

	assert.False(t, ok)
	assert.Contains(t, why, `unknown condition type "moon_phase"`)
}

func TestCheckStopsAtFirstFailure(t *testing.T) {
	c := testChecker(time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC))
	task := conditionTask(map[string]string{"env": "dev"},
		structs.Condition{Type: structs.ConditionVariable, Field: "env", Operator: structs.OpEquals, Value: "prod"},
		structs.Condition{Type: structs.ConditionTime, Operator: structs.OpExists},
	)

	ok, why := c.Check(context.Background(), task)

	assert.False(t, ok)
	assert.Contains(t, why, "condition 1")
}

func TestCompareFallsBackToLexicographic(t *testing.T) {
	// both sides numeric: 9 < 10
	ok, _ := compare("9", structs.OpLess, "10")
	assert.True(t, ok)

	// non-numeric sides order as strings: "v9" > "v10"
	ok, _ = compare("v9", structs.OpGreater, "v10")
	assert.True(t, ok)

	ok, why := compare("a", structs.OpEquals, "b")
	assert.False(t, ok)
	assert.Equal(t, `"a" != "b"`, why)

	ok, why = compare("a", "tilts", "b")
	assert.False(t, ok)
	assert.Contains(t, why, "unknown operator")
}
