package imageproc

import "fmt"

// State is the connection state of the vision client.
type State int

const (
	Disconnected State = iota
	ConnectingRobot
	ConnectingCamera
	Connected
	Streaming
)

func (s State) String() string {
	switch s {
	case Disconnected:
		return "Disconnected"
	case ConnectingRobot:
		return "ConnectingRobot"
	case ConnectingCamera:
		return "ConnectingCamera"
	case Connected:
		return "Connected"
	case Streaming:
		return "Streaming"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}
