package application

import "expvar"

// Published on /api/debug/vars.
var (
	loansCreated  = expvar.NewInt("loans_created")
	loansReturned = expvar.NewInt("loans_returned")
	loansRejected = expvar.NewInt("loans_rejected")
)
