package memory

import (
	"github.com/siguialassane/fact-capture-ai-sub002/internal/service/ledger"
	"github.com/siguialassane/fact-capture-ai-sub002/internal/service/lettrage"
)

// Compile-time interface assertions documenting which interfaces Store satisfies.
var (
	_ ledger.Repo     = (*Store)(nil)
	_ ledger.Writer   = (*Store)(nil)
	_ lettrage.Repo   = (*Store)(nil)
	_ lettrage.Writer = (*Store)(nil)
)
