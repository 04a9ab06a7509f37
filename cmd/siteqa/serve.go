package main

import (
	"fmt"

	sitehttp "github.com/fwojciec/siteqa/http"
)

// Run executes the serve command. It blocks until the context is canceled.
func (c *ServeCmd) Run(deps *Dependencies) error {
	s := sitehttp.NewServer(deps.Answerer, deps.Admin, deps.Logger)
	s.Addr = c.Addr
	if err := s.Open(); err != nil {
		fmt.Fprintf(deps.Stderr, "error: %v\n", err)
		return err
	}

	fmt.Fprintf(deps.Stdout, "Listening on %s\n", s.URL())
	<-deps.Ctx.Done()

	return s.Close()
}
