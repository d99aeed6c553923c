package endpoints

// A request for the network around a point. Radius is in metres.
type GetMapDataRequest struct {
	Lat    float64 `json:"lat"`
	Lon    float64 `json:"lon"`
	Radius float64 `json:"radius"`
}
