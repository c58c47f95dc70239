package card

import "math/rand"

type CardList []Card

func (ds *CardList) Init(cards []Card) {
	*ds = make([]Card, len(cards))
	copy(*ds, cards)
}

// Count 获取总牌数
func (ds CardList) Count() int {
	return len(ds)
}

// Shuffle 使用注入的随机源洗牌，保证可重放。
func (ds CardList) Shuffle(rng *rand.Rand) {
	rng.Shuffle(len(ds), func(i, j int) {
		ds[i], ds[j] = ds[j], ds[i]
	})
}

func (ds *CardList) Add(cards ...Card) {
	*ds = append(*ds, cards...)
}

func (ds *CardList) PopCard() Card {
	totalCount := ds.Count()
	if totalCount == 0 {
		return CardInvalid
	}
	card := (*ds)[totalCount-1]
	*ds = (*ds)[:totalCount-1]
	return card
}

// Codes 返回两字符编码切片，供日志与 wire 层使用。
func (ds CardList) Codes() []string {
	out := make([]string, 0, len(ds))
	for _, c := range ds {
		out = append(out, c.String())
	}
	return out
}
