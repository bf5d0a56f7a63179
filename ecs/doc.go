/*
Package ecs is an Entity-Component-System core for voxel-game simulations.

It stores entities in archetype-indexed dense tables for cache-friendly
iteration, keeps relations (entity-to-entity edges, symmetric or tree
shaped) in separate sparse tables, and exposes component/relation/
resource types through a runtime reflection layer rather than requiring
every participating type to be known at compile time.

Core Concepts:

  - Entity: a generational identifier for a simulated object.
  - DataType: a component, relation, or resource registered by name
    through the reflection layer.
  - Archetype: the set of entities sharing the same component set,
    backed by one DenseTable per archetype.
  - RelationTable: sparse (from, to) edges for a single relation type.
  - CommandBuffer: queues structural mutations (add/remove/destroy,
    spawn, relate/unrelate) recorded while the World is locked by an
    in-progress query, applying them once the lock count returns to
    zero.
  - Observers / EventChannel: synchronous add/remove/destroy callbacks,
    and a per-reader-cursor polled event queue, respectively.

Package app builds on ecs to add system scheduling, blueprint/scene
loading, and the Builder setup surface; ecs itself only concerns itself
with storage and direct mutation.
*/
package ecs
