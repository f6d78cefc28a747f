package game

type Action int

const (
	Click Action = iota
	RightClick
	MiddleClick
)

func (action Action) String() string {
	switch action {
	case Click:
		return "click"
	case RightClick:
		return "right-click"
	case MiddleClick:
		return "middle-click"
	default:
		return "unknown"
	}
}

// CellAction is one input event aimed at a cell.
type CellAction struct {
	Position
	Action Action
}

type Director interface {
	/**
	 * Initialize the director for the session's current game
	 */
	Init(*Session)

	/**
	 * Choose the next action, or report false when there is nothing left to do
	 */
	Act() (CellAction, bool)
}
