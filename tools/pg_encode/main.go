package main

import (
	"fmt"
	"os"

	"paygate/internal/secrets"
)

func main() {
	if len(os.Args) != 2 {
		fmt.Println("usage: go run tools/pg_encode <plaintext>")
		os.Exit(1)
	}
	enc, err := secrets.NewCodec().Encode(os.Args[1])
	if err != nil {
		fmt.Println("encode failed:", err)
		os.Exit(1)
	}
	fmt.Println(enc)
}
