package game

import (
	"fmt"
	"math/rand"
	"time"

	"pairserver/models"
)

// 1つの山札に採用する絵柄の数と、それから決まるカード枚数。
const (
	FacesPerDeck = 8
	CardsPerDeck = FacesPerDeck * 2
)

// カードの絵柄カタログ。8種類以上あればよく、山札生成時にここから
// ランダムに8種類が選ばれます。
var CardFaces = []models.CardFace{
	{Name: "Pikachu", Image: "/images/pokemon/pikachu.png"},
	{Name: "Charmander", Image: "/images/pokemon/charmander.png"},
	{Name: "Bulbasaur", Image: "/images/pokemon/bulbasaur.png"},
	{Name: "Squirtle", Image: "/images/pokemon/squirtle.png"},
	{Name: "Jigglypuff", Image: "/images/pokemon/jigglypuff.png"},
	{Name: "Meowth", Image: "/images/pokemon/meowth.png"},
	{Name: "Psyduck", Image: "/images/pokemon/psyduck.png"},
	{Name: "Snorlax", Image: "/images/pokemon/snorlax.png"},
	{Name: "Eevee", Image: "/images/pokemon/eevee.png"},
	{Name: "Gengar", Image: "/images/pokemon/gengar.png"},
	{Name: "Magikarp", Image: "/images/pokemon/magikarp.png"},
	{Name: "Mew", Image: "/images/pokemon/mew.png"},
}

// 乱数は絵柄の抽選・山札のシャッフル・先手の決定に使用
func CreateLocalRandGenerator() *rand.Rand {
	source := rand.NewSource(time.Now().UnixNano())
	return rand.New(source)
}

// NewDeck はカタログから8種類の絵柄を重複なしで抽選し、各絵柄2枚ずつの
// 山札をシャッフルして返します。シャッフルはFisher-Yates（rand.Shuffle）で、
// カードIDは山札内で一意です。
func NewDeck(randGen *rand.Rand) []*models.Card {
	selected := make([]models.CardFace, len(CardFaces))
	copy(selected, CardFaces)
	randGen.Shuffle(len(selected), func(i, j int) {
		selected[i], selected[j] = selected[j], selected[i]
	})
	selected = selected[:FacesPerDeck]

	cards := make([]*models.Card, 0, CardsPerDeck)
	for i, face := range selected {
		for copyNum := 1; copyNum <= 2; copyNum++ {
			cards = append(cards, &models.Card{
				ID:        fmt.Sprintf("%d-%d", i, copyNum),
				FaceName:  face.Name,
				FaceImage: face.Image,
			})
		}
	}

	randGen.Shuffle(len(cards), func(i, j int) {
		cards[i], cards[j] = cards[j], cards[i]
	})
	return cards
}
