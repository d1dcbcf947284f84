// Package sim is the mob behavior simulation core.
//
// A World owns a Store of agents and spawners and advances it with Tick.
// Each tick runs four phases in order: the behavior pass (parallel, one
// random stream per worker), collision resolution against the contacts of
// the physics step, the spawn/despawn scan (parallel, recording into a
// per-worker mutation buffer) and finally single-threaded playback of the
// recorded creates and destroys.
package sim
