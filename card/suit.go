package card

type Suit byte

const (
	Spade   Suit = iota // ♠️
	Heart               // ♥️
	Club                // ♣️
	Diamond             // ♦️
)

func (s Suit) String() string {
	switch s {
	case Spade:
		return "s"
	case Heart:
		return "h"
	case Club:
		return "c"
	case Diamond:
		return "d"
	}
	return "?"
}
