package main

import (
	"fmt"
	"os"

	"paygate/internal/secrets"
)

func main() {
	if len(os.Args) != 2 {
		fmt.Println("usage: go run tools/pg_decode <encoded>")
		os.Exit(1)
	}
	codec := secrets.NewCodec()
	if !codec.IsEncoded(os.Args[1]) {
		fmt.Println("input does not look encoded")
		os.Exit(1)
	}
	dec, err := codec.Decode(os.Args[1])
	if err != nil {
		fmt.Println("decode failed:", err)
		os.Exit(1)
	}
	fmt.Println(dec)
}
