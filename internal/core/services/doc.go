// Package services implements the driving port interfaces.
// Services contain the core business logic and orchestrate
// calls to driven ports (adapters).
//
// Numerical work (polynomial fitting, statistics) uses gonum; record
// validation uses validator. Everything else is plain Go over the ports.
package services
