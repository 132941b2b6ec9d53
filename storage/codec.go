package storage

import "encoding/json"

func encodeFloats(v []float64) ([]byte, error) {
	return json.Marshal(v)
}

func decodeFloats(data []byte) ([]float64, error) {
	var v []float64
	if err := json.Unmarshal(data, &v); err != nil {
		return nil, err
	}
	return v, nil
}

func encodeInts(v []int) ([]byte, error) {
	return json.Marshal(v)
}

func decodeInts(data []byte) ([]int, error) {
	var v []int
	if err := json.Unmarshal(data, &v); err != nil {
		return nil, err
	}
	return v, nil
}
