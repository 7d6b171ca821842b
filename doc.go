/*
go-floormap incrementally builds a 2D semantic floor map from two noisy,
asynchronous real-time streams: a high-frequency camera pose/geometry stream
and a low-frequency object-detection stream.

Pose samples and tracked surface polygons are folded into a sparse occupancy
grid, while raw per-frame object detections are decoded, deduplicated and
temporally confirmed before being projected into world space and merged into
a spatially indexed landmark store.  Map snapshots combine both into a dense
grid payload for an external renderer or navigation consumer.

Frame acquisition, device pose tracking and the detector model itself are
external collaborators consumed through interfaces, see Mapper.

See example usage in the package tests.
*/
package floormap
