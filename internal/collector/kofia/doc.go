// Package kofia collects final quoted yields from the KOFIA bond
// information portal, which exposes its data only through a legacy
// frame-based web UI with an Excel export button.
//
// A PortalSession is a typed state machine over that UI: navigate,
// open the menu, enter the period tab's data frame, set the date
// range, select instruments, export, and retrieve the downloaded
// file. Every transition is one UI action guarded by a bounded wait;
// a wait that never comes true fails the whole session.
//
// The 18-instrument catalog exceeds what one export carries, so the
// Collector partitions it into three fixed batches and runs each in a
// fresh browser. A failed batch is logged and skipped; the surviving
// batch tables are joined on date into one raw table with the
// portal's Korean headers, standardized downstream.
package kofia
