package utils

import (
	"fmt"
	"io"
	"math"
	"net/http"
	"strings"
)

func GetHTTP(address string) ([]byte, error) {
	req, err := http.NewRequest(http.MethodGet, address, nil)
	if err != nil {
		return nil, err
	}
	client := http.DefaultClient
	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	return body, nil
}

func NicePrice(f float64, decimals int) string {
	s := fmt.Sprintf("%v", uint64(f))
	for idx := len(s) - 3; idx > 0; idx -= 3 {
		s = s[:idx] + "," + s[idx:]
	}
	if decimals > 0 {
		s += "."
	}
	for i := 0; i < decimals; i++ {
		f -= math.Trunc(f)
		f *= 10
		s += fmt.Sprintf("%v", uint64(f))
	}

	if decimals == -1 { // auto
		if math.Ceil(f) == f {
			return s
		}
		s += "."
		nnd := 0
		nndFound := false
		for i := 0; i < 18; i++ {
			f -= math.Trunc(f)
			f *= 10
			d := uint64(f)
			s += fmt.Sprintf("%v", d)
			if d != 0 && !nndFound {
				nndFound = true
			}
			if nndFound {
				nnd++
				if nnd >= 4 {
					for strings.HasSuffix(s, "0") {
						s = strings.TrimSuffix(s, "0")
					}
					s = strings.TrimSuffix(s, ".")
					break
				}
			}
		}
	}

	return s
}

func ShortenAddress(address string) string {
	l := len(address)
	if l < 14 {
		return ""
	}

	return address[:8] + "..." + address[l-6:]
}
