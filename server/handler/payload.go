package handler

// TokenRequest は /token の本文です。空でも構いません。
type TokenRequest struct {
	Admin    bool   `json:"admin"`
	AdminKey string `json:"adminKey"`
}

type TokenResponse struct {
	Token     string `json:"token"`
	SessionID string `json:"sessionId"`
}

// ResetStabilityPayload は管理者による安定度の再設定です。
type ResetStabilityPayload struct {
	Entity string  `json:"entity"`
	Value  float64 `json:"value"`
}

// ResizeZonePayload は管理者によるゾーン寸法の変更です。
type ResizeZonePayload struct {
	Extent float64 `json:"extent"`
}
