package bot

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

type Action string

const (
	ActionNoop     Action = "noop"
	ActionOpen     Action = "open"
	ActionPage     Action = "pg"
	ActionAdd      Action = "add"
	ActionCart     Action = "cart"
	ActionClear    Action = "clear"
	ActionCheckout Action = "checkout"
)

var ErrUnknownCallback = errors.New("unknown callback payload")

// Callback is the decoded form of inline button data:
// noop | open | pg:<n> | add:<id>:pg<n> | cart | clear | checkout
type Callback struct {
	Action    Action
	Page      int
	ProductID int64
}

func PageCallback(page int) Callback {
	return Callback{Action: ActionPage, Page: page}
}

func AddCallback(productID int64, page int) Callback {
	return Callback{Action: ActionAdd, ProductID: productID, Page: page}
}

func (c Callback) Encode() string {
	switch c.Action {
	case ActionPage:
		return fmt.Sprintf("pg:%d", c.Page)
	case ActionAdd:
		return fmt.Sprintf("add:%d:pg%d", c.ProductID, c.Page)
	default:
		return string(c.Action)
	}
}

func ParseCallback(data string) (Callback, error) {
	switch Action(data) {
	case ActionNoop, ActionOpen, ActionCart, ActionClear, ActionCheckout:
		return Callback{Action: Action(data)}, nil
	}

	switch {
	case strings.HasPrefix(data, "pg:"):
		page, err := strconv.Atoi(strings.TrimPrefix(data, "pg:"))
		if err != nil {
			return Callback{}, fmt.Errorf("%w: %q", ErrUnknownCallback, data)
		}
		return PageCallback(page), nil

	case strings.HasPrefix(data, "add:"):
		parts := strings.Split(data, ":")
		if len(parts) < 2 {
			return Callback{}, fmt.Errorf("%w: %q", ErrUnknownCallback, data)
		}
		id, err := strconv.ParseInt(parts[1], 10, 64)
		if err != nil {
			return Callback{}, fmt.Errorf("%w: %q", ErrUnknownCallback, data)
		}
		// a missing or broken page hint sends the user back to page 1
		page := 1
		if len(parts) > 2 {
			if n, err := strconv.Atoi(strings.TrimPrefix(parts[2], "pg")); err == nil {
				page = n
			}
		}
		return AddCallback(id, page), nil
	}

	return Callback{}, fmt.Errorf("%w: %q", ErrUnknownCallback, data)
}
