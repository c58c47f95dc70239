package card

import (
	"fmt"
	"strings"
)

// Card 牌枚举
//
// 编码规则:
// - 高4位: 花色 (0:Spade, 1:Heart, 2:Club, 3:Diamond)
// - 低4位: 点数 (1:A, 2..9, 10:T, 11:J, 12:Q, 13:K)
type Card byte

const (
	CardInvalid Card = 0
	// CardHole 牌背（庄家暗牌）：可见但未翻开，不参与计数。
	CardHole Card = 0xFF
)

func New(s Suit, rank byte) Card {
	if rank < 1 || rank > 13 {
		return CardInvalid
	}
	return Card(byte(s)<<4 | rank)
}

func (c Card) String() string {
	if c == CardInvalid {
		return "Invalid"
	}
	if c == CardHole {
		return "Hole"
	}
	return rankCode(c.Rank()) + c.Suit().String()
}

// Rank 获取牌面值 1-13 (A=1, K=13)
func (c Card) Rank() byte {
	if c == CardInvalid || c == CardHole {
		return 0
	}
	return byte(c & 0x0F)
}

// Suit 花色 (0:Spades, 1:Hearts, 2:Clubs, 3:Diamonds)
func (c Card) Suit() Suit {
	return Suit(c >> 4)
}

func (c Card) IsAce() bool {
	return c.Rank() == 1
}

// IsTenValue 10/J/Q/K
func (c Card) IsTenValue() bool {
	r := c.Rank()
	return r >= 10 && r <= 13
}

// HardValue 二十一点面值: 花牌 10, A 按 11（软值由 Hand 调整）。
func (c Card) HardValue() int {
	r := int(c.Rank())
	switch {
	case r == 0:
		return 0
	case r == 1:
		return 11
	case r >= 10:
		return 10
	default:
		return r
	}
}

// HiLoWeight Hi-Lo 计数权重: 2-6 → +1, 7-9 → 0, T/J/Q/K/A → -1。
func (c Card) HiLoWeight() int {
	r := c.Rank()
	switch {
	case r == 0:
		return 0
	case r >= 2 && r <= 6:
		return 1
	case r >= 7 && r <= 9:
		return 0
	default: // T J Q K A
		return -1
	}
}

// ZenWeight Zen 计数权重: 2,3,7 → +1; 4-6 → +2; 8,9 → 0; T-K → -2; A → -1。
func (c Card) ZenWeight() int {
	switch r := c.Rank(); r {
	case 2, 3, 7:
		return 1
	case 4, 5, 6:
		return 2
	case 8, 9:
		return 0
	case 10, 11, 12, 13:
		return -2
	case 1:
		return -1
	default:
		return 0
	}
}

func rankCode(r byte) string {
	switch r {
	case 1:
		return "A"
	case 10:
		return "T"
	case 11:
		return "J"
	case 12:
		return "Q"
	case 13:
		return "K"
	default:
		return fmt.Sprintf("%d", r)
	}
}

// Parse 将字符串 (如 "As", "Td", "10h") 转换为 Card。
// 末位是花色字符，前缀是点数。"??" 和 "XX" 视为牌背。
func Parse(cardStr string) (Card, error) {
	if cardStr == "??" || strings.EqualFold(cardStr, "XX") {
		return CardHole, nil
	}
	if len(cardStr) < 2 {
		return CardInvalid, fmt.Errorf("invalid card string: %q", cardStr)
	}

	var suit Suit
	switch cardStr[len(cardStr)-1] {
	case 's', 'S':
		suit = Spade
	case 'h', 'H':
		suit = Heart
	case 'c', 'C':
		suit = Club
	case 'd', 'D':
		suit = Diamond
	default:
		return CardInvalid, fmt.Errorf("invalid suit: %c", cardStr[len(cardStr)-1])
	}

	var rank byte
	switch strings.ToUpper(cardStr[:len(cardStr)-1]) {
	case "A":
		rank = 1
	case "2", "3", "4", "5", "6", "7", "8", "9":
		rank = cardStr[0] - '0'
	case "T", "10":
		rank = 10
	case "J":
		rank = 11
	case "Q":
		rank = 12
	case "K":
		rank = 13
	default:
		return CardInvalid, fmt.Errorf("invalid rank: %s", cardStr[:len(cardStr)-1])
	}

	return New(suit, rank), nil
}

// MustParse 仅供测试和常量表使用。
func MustParse(s string) Card {
	c, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return c
}

// Deck 生成一副 52 张牌（按花色、点数有序）。
func Deck() []Card {
	out := make([]Card, 0, 52)
	for s := Spade; s <= Diamond; s++ {
		for r := byte(1); r <= 13; r++ {
			out = append(out, New(s, r))
		}
	}
	return out
}
