// Package scheduler drives several campaigns to completion one run at a
// time. At every step it runs the next instance of the pending campaign
// whose estimated next cost is smallest in absolute value, so cheap runs
// across the whole matrix finish before expensive ones are attempted.
package scheduler
