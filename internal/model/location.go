package model

// LocationCandidate はジオコーダが自由テキストから生成する候補地を表す。
// 候補はランク順で返され、リゾルバは先頭（最上位）を採用する。
type LocationCandidate struct {
	Label string
	Lat   float64
	Lon   float64
}
