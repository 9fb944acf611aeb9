package models

// CardFace はカードの絵柄カタログの1エントリです。
type CardFace struct {
	Name  string `json:"name"`
	Image string `json:"img"`
}

// Card は1枚のカードの状態を表します。
// 絵柄(FaceName/FaceImage)は不変で、IsFlipped・IsMatched・MatchedByのみが
// ゲーム進行によって変化します。
type Card struct {
	ID        string `json:"id"`
	FaceName  string `json:"pokemonName"`
	FaceImage string `json:"pokemonImg"`
	IsFlipped bool   `json:"isFlipped"`
	IsMatched bool   `json:"isMatched"`
	MatchedBy string `json:"matchedBy,omitempty"` // このペアを取ったプレイヤーのID
}
