package handlers

import "time"

// timeNow is stubbed in tests that need a fixed clock.
var timeNow = time.Now
