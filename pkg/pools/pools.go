// Package pools provides object pooling for reducing GC pressure in the
// propagation hot loop and in bulk output.
//
//   - CountMapPool: label tally maps, one per engine task
//   - VertexSlicePool: capacity-classed []uint64 buffers for community members
//   - BufferPool: byte buffers for formatting label records
package pools
